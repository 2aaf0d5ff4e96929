package cli

import (
	"context"
	"fmt"
)

// Upload sends the file named by args[0], or prompted for, and prints the
// URL the server stored it under.
func (a *App) Upload(ctx context.Context, args []string) error {
	path, err := a.argOrPrompt(args, "Enter file path")
	if err != nil {
		return err
	}

	ref, err := a.uploadService.Upload(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "File uploaded successfully!")
	fmt.Fprintln(a.out, ref.URL)
	return nil
}
