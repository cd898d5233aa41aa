// @title           Photo Picker API
// @version         1.0.0
// @description     Image hosting API for the Photo Picker app. Clients upload images with optional metadata, then list, fetch, update and delete them.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"photo-picker-backend/internal/cli"
)

const version = "1.0.0"

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
