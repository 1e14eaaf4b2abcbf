// Build with: GOARCH=wasm GOOS=js go build -o web/app.wasm ./app
package main

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/kidandcat/bugracer/internal/ui"
)

func main() {
	ui.Routes()
	app.RunWhenOnBrowser()
}
