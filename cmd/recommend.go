package cmd

import (
	"fmt"
	"os"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/geo"
	"github.com/bookscout/bookscout/internal/recommend"
	"github.com/bookscout/bookscout/internal/suggest"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	var lat, lon string

	cmd := &cobra.Command{
		Use:   "recommend KEYWORD",
		Short: "Run the recommendation pipeline once and print the JSON result",
		Example: `  # Without location (no-gps mode)
  bookscout recommend "우주 과학"

  # Ranked by availability near Seoul City Hall
  bookscout recommend "우주 과학" --lat 37.5665 --lon 126.978`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, source, err := loadConfig()
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(settings, source)
			if err != nil {
				return err
			}

			req := recommend.Request{Keyword: args[0]}
			if point, ok := geo.ParsePoint(lat, lon); ok {
				req.Location = &point
			}

			result, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			_, err = fmt.Fprintln(os.Stdout, string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Latitude of the user")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude of the user")

	return cmd
}

// newPipeline wires a pipeline from settings and credentials for CLI use.
func newPipeline(settings config.Settings, source config.Source) (*recommend.Pipeline, error) {
	creds, err := config.ResolveCredentials(source, settings.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := suggest.NewProvider(settings.Provider, creds.ModelKey)
	if err != nil {
		return nil, err
	}

	client := catalog.NewClient(settings.CatalogBaseURL,
		catalog.WithCallTimeout(settings.CatalogTimeout),
		catalog.WithRateLimit(settings.CatalogRPS, settings.CatalogBurst),
	).WithAuthKey(creds.LibraryKey)

	return recommend.New(client,
		suggest.NewGenerator(provider, settings.Model, settings.Temperature),
		recommend.WithFanoutLimit(settings.FanoutLimit),
	), nil
}
