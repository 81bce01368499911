package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/s2eweb/s2eweb/internal/database"
	"github.com/s2eweb/s2eweb/internal/resource"
	"github.com/s2eweb/s2eweb/internal/storage"
	"github.com/s2eweb/s2eweb/internal/validate"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Manage the embeddable demo resources served under /embed",
}

var (
	embedTitle      string
	embedWidth      string
	embedHeight     string
	embedMinVersion int
	embedBgColor    string
	embedRedirect   string
	embedVars       []string
)

var embedPutCmd = &cobra.Command{
	Use:   "put NAME FILE",
	Short: "Upload a movie and register it as /embed/NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]
		if msg := validate.ResourceName(name); msg != "" {
			return errors.New(msg)
		}
		if msg := validate.RedirectURL(embedRedirect); msg != "" {
			return errors.New(msg)
		}
		vars, err := parseVariables(embedVars)
		if err != nil {
			return err
		}

		return withResources(cmd.Context(), func(ctx context.Context, repo *resource.Repository) error {
			store, err := newStorage(ctx)
			if err != nil {
				return err
			}
			if err := store.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("storage bucket check failed: %w", err)
			}

			ext := filepath.Ext(file)
			key := storage.ObjectKey(name, ext)
			contentType := mime.TypeByExtension(ext)
			if strings.EqualFold(ext, ".swf") || contentType == "" {
				contentType = "application/x-shockwave-flash"
			}
			if err := store.UploadFile(ctx, key, file, contentType); err != nil {
				return err
			}

			res := resource.Resource{
				Name:            name,
				Title:           embedTitle,
				ObjectKey:       key,
				Width:           embedWidth,
				Height:          embedHeight,
				MinVersion:      embedMinVersion,
				BackgroundColor: embedBgColor,
				RedirectURL:     embedRedirect,
				Variables:       vars,
			}
			if err := repo.Put(ctx, res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered /embed/%s (%s)\n", name, key)
			return nil
		})
	},
}

var embedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withResources(cmd.Context(), func(ctx context.Context, repo *resource.Repository) error {
			resources, err := repo.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tSIZE\tMIN VERSION\tOBJECT")
			for _, res := range resources {
				fmt.Fprintf(tw, "%s\t%s\t%sx%s\t%d\t%s\n", res.Name, res.Title, res.Width, res.Height, res.MinVersion, res.ObjectKey)
			}
			return tw.Flush()
		})
	},
}

var embedDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a resource and its stored movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		return withResources(cmd.Context(), func(ctx context.Context, repo *resource.Repository) error {
			res, err := repo.Get(ctx, name)
			if err != nil {
				return err
			}
			if err := repo.Delete(ctx, name); err != nil {
				return err
			}
			if os.Getenv("S3_ENDPOINT") != "" && !strings.Contains(res.ObjectKey, "://") {
				store, err := newStorage(ctx)
				if err != nil {
					return err
				}
				if err := store.DeleteObject(ctx, res.ObjectKey); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted /embed/%s\n", name)
			return nil
		})
	},
}

func init() {
	flags := embedPutCmd.Flags()
	flags.StringVar(&embedTitle, "title", "", "page heading")
	flags.StringVar(&embedWidth, "width", "550", "embed width")
	flags.StringVar(&embedHeight, "height", "400", "embed height")
	flags.IntVar(&embedMinVersion, "min-version", 6, "minimum plugin major version")
	flags.StringVar(&embedBgColor, "bgcolor", "", "background color, e.g. #ffffff")
	flags.StringVar(&embedRedirect, "redirect", "", "page browsers without the plugin are sent to instead of the fallback text")
	flags.StringArrayVar(&embedVars, "var", nil, "variable passed to the movie as name=value; repeatable, order kept")

	embedCmd.AddCommand(embedPutCmd, embedListCmd, embedDeleteCmd)
}

// parseVariables keeps the command-line order, which is the order the movie
// receives them in.
func parseVariables(raw []string) ([]resource.Variable, error) {
	vars := make([]resource.Variable, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", kv)
		}
		vars = append(vars, resource.Variable{Name: name, Value: value})
	}
	return vars, nil
}

func withResources(parent context.Context, fn func(ctx context.Context, repo *resource.Repository) error) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	return fn(ctx, resource.NewRepository(db.Pool))
}
