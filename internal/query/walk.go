package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"

	"github.com/jandubois/jmxcheck/internal/config"
)

// Walk prints every remote object with its attributes and their current
// values. Attributes that cannot be read are reported to errw and skipped.
func (r *Retriever) Walk(ctx context.Context, w, errw io.Writer) error {
	sess, err := r.connect(ctx, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	heading := color.New(color.Bold).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	names, err := sess.ListObjects(ctx)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	for _, name := range names {
		fmt.Fprintf(w, "object -> %s\n", heading(name.String()))
		info, err := sess.Describe(ctx, name)
		if err != nil {
			return fmt.Errorf("describe %s: %w", name, err)
		}
		for _, attr := range info.Attributes {
			fmt.Fprintf(w, "  attribute name -> %s, type -> %s\n", attr.Name, attr.Type)
			value, err := sess.GetAttribute(ctx, name, attr.Name)
			if err != nil {
				fmt.Fprintf(errw, "%s -> %s\n", failed("Error reading attribute"), attr.Name)
				slog.Debug("walk read failed", "object", name, "attribute", attr.Name, "error", err)
				continue
			}
			writeValue(w, value)
		}
	}
	return nil
}

func writeValue(w io.Writer, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  attribute value -> %s %s\n", k, config.FormatValue(v[k]))
		}
	case []any:
		for i, item := range v {
			fmt.Fprintf(w, "  attribute value[%d] -> %s\n", i, config.FormatValue(item))
		}
	default:
		fmt.Fprintf(w, "  attribute value -> %s\n", config.FormatValue(v))
	}
}

