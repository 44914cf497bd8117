package main

import (
	"strconv"

	"github.com/DavidRambo/image-microservice/internal/client"
	"github.com/spf13/cobra"
)

type commandContext struct {
	server *string
	doer   client.HTTPDoer
}

func (c *commandContext) client() *client.Client {
	return client.New(*c.server, c.doer)
}

func newRootCommand() *cobra.Command {
	var serverFlag string
	ctx := &commandContext{server: &serverFlag}

	rootCmd := &cobra.Command{
		Use:           "imgclient",
		Short:         "Manual test client for the image album service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", client.DefaultServer, "Base URL of the image service")

	rootCmd.AddCommand(
		newUploadCommand(ctx),
		newAlbumCommand(ctx),
		newStarredCommand(ctx),
		newGetCommand(ctx),
		newStarCommand(ctx),
		newDeleteCommand(ctx),
		newClearCommand(ctx),
		newDemoCommand(ctx),
	)
	return rootCmd
}

func parseIDArg(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &argError{name: name, value: raw}
	}
	return id, nil
}

type argError struct {
	name  string
	value string
}

func (e *argError) Error() string {
	return e.name + " must be an integer, got " + strconv.Quote(e.value)
}
