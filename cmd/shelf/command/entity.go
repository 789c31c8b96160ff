package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/utils"
	"github.com/shelfhq/shelf/service/resource"
)

const listAllConcurrency = 4

// entitySpec describes how one resource maps onto flags and terminal lines.
type entitySpec[E, F any] struct {
	use      string
	short    string
	resource func(*resource.API) *resource.Resource[E, F]
	bind     func(fs *pflag.FlagSet, form *F)
	validate func(form F) error
	line     func(e *E) string
}

var authorsSpec = entitySpec[model.Author, model.AuthorForm]{
	use:      "authors",
	short:    "Manage authors",
	resource: func(api *resource.API) *resource.Authors { return api.Authors },
	bind: func(fs *pflag.FlagSet, f *model.AuthorForm) {
		fs.StringVar(&f.Name, "name", "", "first name")
		fs.StringVar(&f.Surname, "surname", "", "surname")
		fs.StringVar(&f.Patronymic, "patronymic", "", "patronymic")
		fs.StringVar(&f.Bio, "bio", "", "short biography")
	},
	validate: func(f model.AuthorForm) error {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Surname) == "" {
			return errors.New("--name and --surname are required")
		}
		return nil
	},
	line: func(e *model.Author) string {
		return fmt.Sprintf("#%d\t%s", e.ID, e.FullName())
	},
}

var booksSpec = entitySpec[model.Book, model.BookForm]{
	use:      "books",
	short:    "Manage books",
	resource: func(api *resource.API) *resource.Books { return api.Books },
	bind: func(fs *pflag.FlagSet, f *model.BookForm) {
		fs.StringVar(&f.Title, "title", "", "title")
		fs.StringVar(&f.ISBN, "isbn", "", "ISBN")
		fs.StringVar(&f.Genre, "genre", "", "genre")
		fs.IntVar(&f.PublicationYear, "year", 0, "publication year")
		fs.StringVar(&f.Publisher, "publisher", "", "publisher")
		fs.StringVar(&f.Description, "description", "", "description")
		fs.StringArrayVar(&f.Authors, "author", nil, "author, repeat for several")
	},
	validate: func(f model.BookForm) error {
		if strings.TrimSpace(f.Title) == "" {
			return errors.New("--title is required")
		}
		return nil
	},
	line: func(e *model.Book) string {
		s := fmt.Sprintf("#%d\t%s", e.ID, e.Title)
		if e.PublicationYear != 0 {
			s += fmt.Sprintf(" (%d)", e.PublicationYear)
		}
		if len(e.Authors) > 0 {
			s += "\tby " + strings.Join(e.Authors, ", ")
		}
		return s
	},
}

func entityCmd[E, F any](a *app, spec entitySpec[E, F]) *cobra.Command {
	cmd := &cobra.Command{Use: spec.use, Short: spec.short}
	res := func() *resource.Resource[E, F] { return spec.resource(a.api) }

	cmd.AddCommand(
		listCmd(a, spec, res),
		getCmd(a, spec, res),
		createCmd(a, spec, res),
		updateCmd(a, spec, res),
		deleteCmd(a, res),
	)
	return cmd
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func listCmd[E, F any](a *app, spec entitySpec[E, F], res func() *resource.Resource[E, F]) *cobra.Command {
	var (
		opts    model.ListOptions
		include string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page, or every page with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Include = utils.SplitList(include)
			page, err := res().List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if all {
				if page, err = fetchRemaining(cmd.Context(), res(), opts, page); err != nil {
					return err
				}
			}
			return a.emit(page, func(w io.Writer) {
				for i := range page.Items {
					fmt.Fprintln(w, spec.line(&page.Items[i]))
				}
				if all {
					fmt.Fprintf(w, "%d total\n", page.TotalCount)
				} else {
					fmt.Fprintf(w, "page %d/%d, %d total\n", page.Page, page.TotalPages, page.TotalCount)
				}
			})
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&opts.Page, "page", model.DefaultPage, "page number")
	fs.IntVar(&opts.PageSize, "page-size", model.DefaultPageSize, "items per page")
	fs.StringVar(&include, "include", "", "related fields to expand, comma separated")
	fs.BoolVar(&all, "all", false, "fetch every page from --page on")
	return cmd
}

// fetchRemaining loads the pages after first concurrently and merges them in
// page order.
func fetchRemaining[E, F any](ctx context.Context, res *resource.Resource[E, F], opts model.ListOptions, first *model.PagedResult[E]) (*model.PagedResult[E], error) {
	if !first.HasNext() {
		return first, nil
	}

	pages := make([][]E, first.TotalPages-first.Page)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listAllConcurrency)
	for i := range pages {
		o := opts
		o.Page = first.Page + 1 + i
		g.Go(func() error {
			p, err := res.List(gctx, o)
			if err != nil {
				return err
			}
			pages[i] = p.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := *first
	for _, items := range pages {
		merged.Items = append(merged.Items, items...)
	}
	return &merged, nil
}

func getCmd[E, F any](a *app, spec entitySpec[E, F], res func() *resource.Resource[E, F]) *cobra.Command {
	var include string
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := res().GetByID(cmd.Context(), id, utils.SplitList(include)...)
			if err != nil {
				return err
			}
			return a.emit(e, func(w io.Writer) { fmt.Fprintln(w, spec.line(e)) })
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "related fields to expand, comma separated")
	return cmd
}

func createCmd[E, F any](a *app, spec entitySpec[E, F], res func() *resource.Resource[E, F]) *cobra.Command {
	var (
		form F
		key  string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := spec.validate(form); err != nil {
				return err
			}
			e, err := res().Create(cmd.Context(), form, key)
			if err != nil {
				return err
			}
			return a.emit(e, func(w io.Writer) { fmt.Fprintln(w, "created", spec.line(e)) })
		},
	}
	spec.bind(cmd.Flags(), &form)
	cmd.Flags().StringVar(&key, "idempotency-key", "", "reuse a key when retrying a create")
	return cmd
}

func updateCmd[E, F any](a *app, spec entitySpec[E, F], res func() *resource.Resource[E, F]) *cobra.Command {
	var patch F
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of an entry; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := res().GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			var form F
			if err := copier.Copy(&form, current); err != nil {
				return err
			}
			if err := copier.CopyWithOption(&form, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
				return err
			}
			if err := spec.validate(form); err != nil {
				return err
			}

			e, err := res().Update(cmd.Context(), id, form)
			if err != nil {
				return err
			}
			return a.emit(e, func(w io.Writer) { fmt.Fprintln(w, "updated", spec.line(e)) })
		},
	}
	spec.bind(cmd.Flags(), &patch)
	return cmd
}

func deleteCmd[E, F any](a *app, res func() *resource.Resource[E, F]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := res().Delete(cmd.Context(), id); err != nil {
				return err
			}
			return a.emit(map[string]any{"deleted": id}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted #%d\n", id)
			})
		},
	}
}
