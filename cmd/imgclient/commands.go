package main

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/spf13/cobra"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "upload <album> <file>",
		Short: "Upload an image into an album",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			img, err := uploadFile(cmd, ctx, album, args[1], mediaType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded image %d to album %d (starred: %t)\n", img.ID, img.Album, img.Starred)
			return nil
		},
	}
	cmd.Flags().StringVar(&mediaType, "type", "", "Media type of the file (guessed from the extension when empty)")
	return cmd
}

func newAlbumCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "album <album>",
		Short: "List the first page of an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			return printAlbum(cmd, ctx, album)
		},
	}
}

func newStarredCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "starred <album>",
		Short: "Download the starred image of an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			return saveStarred(cmd, ctx, album, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default starred.<ext>)")
	return cmd
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <image_id>",
		Short: "Download an image by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("image_id", args[0])
			if err != nil {
				return err
			}
			return saveImage(cmd, ctx, id, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default image.<ext>)")
	return cmd
}

func newStarCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "star <album> <image_id>",
		Short: "Make an image the starred image of its album",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			id, err := parseIDArg("image_id", args[1])
			if err != nil {
				return err
			}
			if err := ctx.client().Star(cmd.Context(), album, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Image %d is now starred in album %d\n", id, album)
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <image_id>",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("image_id", args[0])
			if err != nil {
				return err
			}
			if err := ctx.client().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted image %d\n", id)
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <album>",
		Short: "Delete every image of an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			removed, err := ctx.client().Clear(cmd.Context(), album)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d images from album %d\n", removed, album)
			return nil
		},
	}
}

func newDemoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "demo <album> <files...>",
		Short: "Walk through the whole API step by step",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := parseIDArg("album", args[0])
			if err != nil {
				return err
			}
			d := &demo{cmd: cmd, ctx: ctx, album: album, in: bufio.NewReader(cmd.InOrStdin())}
			return d.run(args[1:])
		},
	}
}

type demo struct {
	cmd   *cobra.Command
	ctx   *commandContext
	album int64
	in    *bufio.Reader
}

func (d *demo) run(files []string) error {
	out := d.cmd.OutOrStdout()

	fmt.Fprintf(out, ">>> Removing all images of album %d...\n", d.album)
	removed, err := d.ctx.client().Clear(d.cmd.Context(), d.album)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d images\n", removed)
	d.pause()

	for i, file := range files {
		fmt.Fprintf(out, ">>> Adding image %d of %d (%s) to album %d...\n", i+1, len(files), filepath.Base(file), d.album)
		img, err := uploadFile(d.cmd, d.ctx, d.album, file, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Got id %d (starred: %t)\n", img.ID, img.Starred)
		d.pause()
	}

	fmt.Fprintf(out, ">>> Listing album %d...\n", d.album)
	if err := printAlbum(d.cmd, d.ctx, d.album); err != nil {
		return err
	}

	id, err := d.askID("Enter the id of an image to view: ")
	if err != nil {
		return err
	}
	if err := saveImage(d.cmd, d.ctx, id, ""); err != nil {
		return err
	}
	d.pause()

	fmt.Fprintf(out, ">>> Fetching the starred image of album %d...\n", d.album)
	if err := saveStarred(d.cmd, d.ctx, d.album, ""); err != nil {
		return err
	}
	d.pause()

	fmt.Fprintf(out, ">>> Changing the starred image of album %d...\n", d.album)
	id, err = d.askID("Enter the id of the image to star: ")
	if err != nil {
		return err
	}
	if err := d.ctx.client().Star(d.cmd.Context(), d.album, id); err != nil {
		return err
	}
	d.pause()

	fmt.Fprintf(out, ">>> Fetching the starred image of album %d...\n", d.album)
	return saveStarred(d.cmd, d.ctx, d.album, "")
}

func (d *demo) pause() {
	fmt.Fprint(d.cmd.OutOrStdout(), "\nPress Enter to continue...\n")
	_, _ = d.in.ReadString('\n')
}

func (d *demo) askID(prompt string) (int64, error) {
	fmt.Fprint(d.cmd.OutOrStdout(), prompt)
	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, err
	}
	return parseIDArg("image_id", strings.TrimSpace(line))
}

func uploadFile(cmd *cobra.Command, ctx *commandContext, album int64, path, mediaType string) (*model.ImagePublic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if mediaType == "" {
		mediaType = guessMediaType(path)
	}
	return ctx.client().Upload(cmd.Context(), album, filepath.Base(path), mediaType, f)
}

func printAlbum(cmd *cobra.Command, ctx *commandContext, album int64) error {
	images, err := ctx.client().Album(cmd.Context(), album)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Album %d is empty\n", album)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderAlbum(images))
	return nil
}

func saveStarred(cmd *cobra.Command, ctx *commandContext, album int64, output string) error {
	data, cType, err := ctx.client().Starred(cmd.Context(), album)
	if err != nil {
		return err
	}
	return writeDownload(cmd, data, cType, output, "starred")
}

func saveImage(cmd *cobra.Command, ctx *commandContext, id int64, output string) error {
	data, cType, err := ctx.client().Image(cmd.Context(), id)
	if err != nil {
		return err
	}
	return writeDownload(cmd, data, cType, output, "image")
}

func writeDownload(cmd *cobra.Command, data []byte, cType, output, stem string) error {
	if output == "" {
		output = stem + "." + extensionFor(cType)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes (%s) to %s\n", len(data), cType, output)
	return nil
}

// guessMediaType picks the type from the extension, image/jpeg otherwise
func guessMediaType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "image/jpeg"
}

func extensionFor(cType string) string {
	mediaType, _, err := mime.ParseMediaType(cType)
	if err != nil {
		return "bin"
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}
