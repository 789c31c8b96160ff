package command

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

// emit writes v as JSON, or calls text when the output format is text.
func (a *app) emit(v any, text func(w io.Writer)) error {
	if a.output == "json" {
		return a.printJSON(v)
	}
	text(a.out)
	return nil
}
