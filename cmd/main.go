package main

import (
	"github.com/shoplane/order/internal/app"
	"github.com/shoplane/order/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
