package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gertd/go-pluralize"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/sqlrepo"
	"github.com/Konsultn-Engineering/sqlrepo/response"
)

// Version is set at build time via -ldflags
var Version = "dev"

// repositoryFile is the YAML layout of a repository definition.
type repositoryFile struct {
	Name       string                      `yaml:"name"`
	Table      string                      `yaml:"table"`
	Connection sqlrepo.Config              `yaml:"connection"`
	Operations map[string]sqlrepo.Metadata `yaml:"operations"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sqlrepo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "repository.yaml", "Repository definition file")
	list := fs.Bool("list", false, "List operations and exit")
	verbose := fs.Bool("v", false, "Log debug output to stderr")
	discard := fs.Bool("discard-partial", false, "Return nothing from a failed transaction")
	version := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sqlrepo [flags] <operation> [name=value ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintf(stdout, "sqlrepo %s\n", Version)
		return nil
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	def, err := loadRepository(*file)
	if err != nil {
		return err
	}

	opts := sqlrepo.Options{Logger: logger}
	if *discard {
		opts.FailurePolicy = sqlrepo.DiscardOnFailure
	}
	e := sqlrepo.New(opts)
	defer e.Close()

	repo := e.Repository(def.Name, def.Table, def.Connection)
	for name, md := range def.Operations {
		if err := repo.Define(name, md); err != nil {
			return err
		}
	}

	if *list {
		for _, name := range repo.Operations() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("operation is required")
	}
	op := fs.Arg(0)
	md, ok := def.Operations[op]
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}
	callArgs, err := bindArgs(md.Params, fs.Args()[1:])
	if err != nil {
		return err
	}

	out, err := repo.Call(ctx, op, callArgs...)
	if out != nil {
		printOutcome(stdout, out)
	}
	if err != nil {
		return err
	}
	e.Wait()
	return nil
}

func loadRepository(path string) (*repositoryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read repository file: %w", err)
	}
	var def repositoryFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse repository file %s: %w", path, err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("repository file %s: name is required", path)
	}
	return &def, nil
}

// bindArgs orders name=value pairs by the declared parameters.
func bindArgs(params []sqlrepo.Param, pairs []string) ([]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not name=value", pair)
		}
		values[name] = parseValue(raw)
	}

	args := make([]any, 0, len(params))
	for _, p := range params {
		v, ok := values[p.Name]
		if !ok {
			return nil, fmt.Errorf("missing argument %q", p.Name)
		}
		delete(values, p.Name)
		args = append(args, v)
	}
	if len(values) > 0 {
		extra := make([]string, 0, len(values))
		for name := range values {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("unknown argument %q", extra[0])
	}
	return args, nil
}

// parseValue keeps numbers bare in rendered SQL and turns null into NULL.
func parseValue(raw string) any {
	switch raw {
	case "null", "NULL":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func printOutcome(w io.Writer, out *sqlrepo.Outcome) {
	client := pluralize.NewClient()
	if out.Len() > 1 {
		fmt.Fprintf(w, "%s\n", client.Pluralize("statement", out.Len(), true))
	}
	for _, set := range out.Sets {
		printSet(w, client, set)
	}
	if out.Partial {
		fmt.Fprintln(w, "transaction rolled back; partial result shown")
	}
}

func printSet(w io.Writer, client *pluralize.Client, set *response.Set) {
	if set.Empty() {
		if set.AffectedRows() > 0 || len(set.Columns()) == 0 {
			fmt.Fprintf(w, "%s affected\n", client.Pluralize("row", int(set.AffectedRows()), true))
			return
		}
		fmt.Fprintln(w, "0 rows")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(set.Columns(), "\t"))
	for _, row := range set.Rows() {
		cells := make([]string, row.Len())
		for i, v := range row.Values() {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if set.AffectedRows() > 0 {
		fmt.Fprintf(w, "%s affected\n", client.Pluralize("row", int(set.AffectedRows()), true))
		return
	}
	fmt.Fprintf(w, "(%s)\n", client.Pluralize("row", set.Len(), true))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
