package main

import (
	"strconv"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderAlbum(images []model.ImagePublic) string {
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		star := ""
		if img.Starred {
			star = "*"
		}
		rows = append(rows, []string{
			strconv.FormatInt(img.ID, 10),
			strconv.FormatInt(img.Album, 10),
			star,
		})
	}
	return renderTable([]string{"ID", "Album", "Starred"}, rows, []columnAlignment{alignRight, alignRight, alignLeft})
}
