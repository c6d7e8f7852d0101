package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/calaisgraph/internal/app"
	"github.com/yungbote/calaisgraph/internal/data/db"
	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the detection tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)
		if err := db.AutoMigrateAll(a.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.Log.Info("migration complete")
		return nil
	},
}

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Normalize a saved response (JSON or RDF/XML) and print it as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if len(args) == 0 || args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		format := normalization.ParseFormat(parseFormat)
		if format == normalization.FormatUnknown && strings.TrimSpace(parseFormat) != "" && parseFormat != "auto" {
			return fmt.Errorf("unknown format %q", parseFormat)
		}
		res, err := normalization.Normalize(format, raw)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var (
	analyzeOwnerType   string
	analyzeOwnerID     string
	analyzeTexts       map[string]string
	analyzeURLs        map[string]string
	analyzeContentType string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze text and URL fields of one object and record its detections",
	Example: `  calais analyze --owner-type article --owner-id 42 --text body="Jane Doe flew to Boston"
  calais analyze --owner-type article --owner-id 42 --url link=https://example.com/story`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(analyzeTexts)+len(analyzeURLs) == 0 {
			return fmt.Errorf("pass at least one --text or --url field")
		}
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)

		obj := &services.StaticObject{
			OwnerType: analyzeOwnerType,
			OwnerID:   analyzeOwnerID,
			Content:   analyzeTexts,
			URLs:      analyzeURLs,
		}
		var fields []services.Field
		for _, name := range sortedNames(analyzeURLs, analyzeTexts) {
			fields = append(fields, services.Field{Name: name, ContentType: analyzeContentType})
		}

		dbc := dbctx.Context{Ctx: commandContext(cmd)}
		doc, err := a.Services.Analysis.Analyze(dbc, obj, fields)
		if err != nil {
			return err
		}
		counts, err := a.Repos.Detection.Counts(dbc, doc.ID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"document":   doc,
			"detections": counts,
		})
	},
}

var (
	showOwnerType string
	showOwnerID   string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored detections of one object",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)

		dbc := dbctx.Context{Ctx: commandContext(cmd)}
		doc, err := a.Services.Analysis.DocumentFor(dbc, &services.StaticObject{OwnerType: showOwnerType, OwnerID: showOwnerID})
		if err != nil {
			return err
		}
		entities, err := a.Repos.Detection.ListEntities(dbc, doc.ID)
		if err != nil {
			return err
		}
		events, err := a.Repos.Detection.ListEvents(dbc, doc.ID)
		if err != nil {
			return err
		}
		tags, err := a.Repos.Detection.ListSocialTags(dbc, doc.ID)
		if err != nil {
			return err
		}
		topics, err := a.Repos.Detection.ListTopics(dbc, doc.ID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"document":    doc,
			"entities":    entities,
			"events":      events,
			"social_tags": tags,
			"topics":      topics,
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, parseCmd, analyzeCmd, showCmd)

	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "auto", "response format: auto, json or rdf")

	analyzeCmd.Flags().StringVar(&analyzeOwnerType, "owner-type", "", "owner type of the analyzed object")
	analyzeCmd.Flags().StringVar(&analyzeOwnerID, "owner-id", "", "owner id of the analyzed object")
	analyzeCmd.Flags().StringToStringVar(&analyzeTexts, "text", nil, "content field as name=value (repeatable)")
	analyzeCmd.Flags().StringToStringVar(&analyzeURLs, "url", nil, "URL field as name=url (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeContentType, "content-type", "", "content type for every field (default text/txt, text/html for URLs)")
	_ = analyzeCmd.MarkFlagRequired("owner-type")
	_ = analyzeCmd.MarkFlagRequired("owner-id")

	showCmd.Flags().StringVar(&showOwnerType, "owner-type", "", "owner type of the object")
	showCmd.Flags().StringVar(&showOwnerID, "owner-id", "", "owner id of the object")
	_ = showCmd.MarkFlagRequired("owner-type")
	_ = showCmd.MarkFlagRequired("owner-id")
}

// commandContext tags the command's context with a fresh request id.
func commandContext(cmd *cobra.Command) context.Context {
	return ctxutil.WithTraceData(cmd.Context(), &ctxutil.TraceData{RequestID: uuid.NewString()})
}

func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Close(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedNames(maps ...map[string]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
