package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadCommand(o *rootOptions) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload one file and print its URL",
		Long: `Upload FILE as if it had been picked in the widget's file dialog.
--value sets the reference the widget starts with; it is printed back
unchanged when the upload fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			app, err := NewApp(o.cfg, value, cmd.ErrOrStderr(), func(url string) {
				fmt.Fprintln(out, url)
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			at, f, err := app.uploadPath(ctx, args[0], false)
			if err != nil {
				app.Close()
				return err
			}
			// The attempt must settle before its file is closed.
			defer func() {
				app.Close()
				_ = f.Close()
			}()

			res, err := at.Wait(ctx)
			if err != nil {
				return err
			}
			if res.Err != nil && value != "" {
				fmt.Fprintln(out, app.widget.Value())
			}
			return res.Err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "current media reference")
	return cmd
}
