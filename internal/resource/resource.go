package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/s2eweb/s2eweb/internal/database"
	"github.com/s2eweb/s2eweb/internal/embed"
)

var ErrNotFound = errors.New("embed resource not found")

// Variable is one name/value pair handed to the embedded movie. Order is
// preserved from storage to markup.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Resource describes one embeddable movie served under /embed/{name}.
type Resource struct {
	Name            string
	Title           string
	ObjectKey       string
	Width           string
	Height          string
	MinVersion      int
	BackgroundColor string
	// RedirectURL replaces the fallback text when the browser lacks the
	// plugin. Only the browser client follows it.
	RedirectURL     string
	Variables       []Variable
}

// ContainerID is the page element the embed is written into.
func (r Resource) ContainerID() string {
	return "embed-" + r.Name + "-container"
}

// Embed builds the embed for this resource. movieURL is where the browser
// fetches the movie from; query is the page's raw query string. The redirect
// is not applied here because server-side detection always fails.
func (r Resource) Embed(movieURL, query string, extra ...Variable) *embed.Embed {
	opts := []embed.Option{
		embed.WithMinVersion(r.MinVersion),
		embed.WithQuery(query),
	}
	if r.BackgroundColor != "" {
		opts = append(opts, embed.WithBackgroundColor(r.BackgroundColor))
	}
	e := embed.New(movieURL, "embed-"+r.Name, r.Width, r.Height, opts...)
	for _, v := range r.Variables {
		e.AddVariable(v.Name, v.Value)
	}
	for _, v := range extra {
		e.AddVariable(v.Name, v.Value)
	}
	return e
}

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const selectColumns = `name, title, object_key, width, height, min_version, background_color, variables, redirect_url`

func (repo *Repository) Get(ctx context.Context, name string) (Resource, error) {
	res, err := scanResource(repo.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM embed_resources WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Resource{}, ErrNotFound
	}
	if err != nil {
		return Resource{}, fmt.Errorf("get embed resource %s: %w", name, err)
	}
	return res, nil
}

func (repo *Repository) List(ctx context.Context) ([]Resource, error) {
	rows, err := repo.db.Query(ctx, `SELECT `+selectColumns+` FROM embed_resources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list embed resources: %w", err)
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan embed resource: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (repo *Repository) Put(ctx context.Context, res Resource) error {
	vars := res.Variables
	if vars == nil {
		vars = []Variable{}
	}
	payload, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	if _, err := repo.db.Exec(ctx,
		`INSERT INTO embed_resources (name, title, object_key, width, height, min_version, background_color, variables, redirect_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (name) DO UPDATE SET
		   title = EXCLUDED.title,
		   object_key = EXCLUDED.object_key,
		   width = EXCLUDED.width,
		   height = EXCLUDED.height,
		   min_version = EXCLUDED.min_version,
		   background_color = EXCLUDED.background_color,
		   variables = EXCLUDED.variables,
		   redirect_url = EXCLUDED.redirect_url,
		   updated_at = now()`,
		res.Name, res.Title, res.ObjectKey, res.Width, res.Height, res.MinVersion, res.BackgroundColor, payload, res.RedirectURL,
	); err != nil {
		return fmt.Errorf("save embed resource %s: %w", res.Name, err)
	}
	return nil
}

func (repo *Repository) Delete(ctx context.Context, name string) error {
	tag, err := repo.db.Exec(ctx, `DELETE FROM embed_resources WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete embed resource %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResource(row pgx.Row) (Resource, error) {
	var (
		res        Resource
		minVersion int32
		vars       []byte
	)
	if err := row.Scan(&res.Name, &res.Title, &res.ObjectKey, &res.Width, &res.Height,
		&minVersion, &res.BackgroundColor, &vars, &res.RedirectURL); err != nil {
		return Resource{}, err
	}
	res.MinVersion = int(minVersion)
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &res.Variables); err != nil {
			return Resource{}, fmt.Errorf("decode variables of %s: %w", res.Name, err)
		}
	}
	return res, nil
}
