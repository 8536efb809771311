package amon

import (
	"github.com/cmodk/amon/app"
)

var (
	Version = "0.2.0"
)

type StringMap map[string]interface{}

type Amon struct {
	*app.App
}

func New() *Amon {
	amon := &Amon{
		App: app.New(),
	}

	return amon
}
