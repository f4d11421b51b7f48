package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paideia-dao/paideia-site/internal/build"
	"github.com/paideia-dao/paideia-site/internal/connectivity"
	"github.com/paideia-dao/paideia-site/internal/mdrender"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/server"
	"github.com/paideia-dao/paideia-site/internal/storage"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/internal/viewmodel"
	"github.com/paideia-dao/paideia-site/pkg/hashutil"
)

var errNoData = errors.New("upstream returned no usable data")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		srv := server.New(cfg, a.cache, a.logger, a.metrics)
		defer srv.Close()

		if spec := cfg.ProbeSchedule(); spec != "" {
			probe := connectivity.NewProbe(
				connectivity.NewHTTPChecker(cfg.PriceAPIBase(), cfg.Timeout()),
				a.cache,
				a.logger,
			)
			schedule, err := connectivity.StartSchedule(ctx, spec, probe, a.logger)
			if err != nil {
				return err
			}
			defer schedule.Stop()
		}

		return srv.Run(ctx)
	},
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print the current PAI token price.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app, out io.Writer) error {
			e := a.load(ctx, resource.AssetPrice(a.cfg.AssetSymbol()))
			p, _ := swr.Value[*resource.PricePayload](e)
			fmt.Fprintf(out, "%s\t%s\t%s\n", a.cfg.AssetSymbol(), viewmodel.BuildPriceView(p), e.Status)
			return nil
		})
	},
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List the education articles.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app, out io.Writer) error {
			e := a.load(ctx, resource.ArticleList(a.cfg.ArticleCategory()))
			list, ok := swr.Value[[]resource.ArticleSummary](e)
			if !ok {
				return fmt.Errorf("articles: %w (status %s)", errNoData, e.Status)
			}
			builder := viewmodel.NewArticleBuilder(a.cfg.LinkNamespace(), a.cfg.PlaceholderPoolSize(), a.cfg.PlaceholderPattern())
			for _, v := range builder.BuildAll(list) {
				fmt.Fprintf(out, "%s\n  %s\n  %s", v.Title, v.Link, v.ImageURL)
				if v.Date != "" {
					fmt.Fprintf(out, "\n  %s", v.Date)
				}
				fmt.Fprintln(out)
			}
			return nil
		})
	},
}

var faqWidth int

var faqCmd = &cobra.Command{
	Use:   "faq",
	Short: "Print the FAQ with answers rendered for the terminal.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app, out io.Writer) error {
			e := a.load(ctx, resource.FAQList())
			list, ok := swr.Value[[]resource.FAQEntry](e)
			if !ok {
				return fmt.Errorf("faq: %w (status %s)", errNoData, e.Status)
			}
			for _, item := range viewmodel.BuildFaqView(list) {
				answer, err := mdrender.ToTerminal(item.Answer, faqWidth)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Q: %s\n%s\n", item.Question, answer)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the pages into static HTML files.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		// a static export waits for the upstreams rather than the page budget
		cfg, err = cfg.WithRenderWait(commandWait).Build()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		srv := server.New(cfg, a.cache, a.logger, nil)
		defer srv.Close()

		var landing, education []byte
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			landing, err = srv.RenderLanding(gctx)
			return err
		})
		g.Go(func() (err error) {
			education, err = srv.RenderEducation(gctx, "")
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("render pages: %w", err)
		}

		sink := storage.NewLocalSink(a.recorder)
		out := cmd.OutOrStdout()
		for _, doc := range []storage.Document{
			storage.NewDocument(server.LandingPath, landing),
			storage.NewDocument(server.EducationPath, education),
		} {
			result, writeErr := sink.Write(cfg.OutputDir(), doc, hashutil.HashAlgoBLAKE3)
			if writeErr != nil {
				return writeErr
			}
			fmt.Fprintf(out, "%s\t%s\tblake3:%s\n", result.Route(), result.Path(), result.ContentHash())
		}
		a.logger.Info("export finished", zap.String("output_dir", cfg.OutputDir()))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Describe(programName))
	},
}

func init() {
	serveCmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides listenAddr)")
	exportCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory receiving the exported pages")
	faqCmd.Flags().IntVar(&faqWidth, "width", 80, "wrap width for rendered answers")
}

// withApp runs fn with a wired app built from the resolved config.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app, out io.Writer) error) error {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a, cmd.OutOrStdout())
}
