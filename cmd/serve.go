package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for formulation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /webhook/formulate", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Category    string   `json:"category"`
				Ingredients string   `json:"ingredients"`
				PriceTier   string   `json:"price_tier"`
				Constraints []string `json:"constraints"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}

			if req.Ingredients == "" {
				http.Error(w, `{"error":"ingredients is required"}`, http.StatusBadRequest)
				return
			}

			brief := model.Brief{
				Category:    req.Category,
				Ingredients: req.Ingredients,
				PriceTier:   req.PriceTier,
				Constraints: req.Constraints,
			}

			// Run the pipeline asynchronously; poll GET /runs/{id} for the result.
			go func() {
				result, err := env.Pipeline.Run(ctx, brief)
				if err != nil {
					zap.L().Error("webhook run failed", zap.Error(err))
					return
				}
				zap.L().Info("webhook run complete",
					zap.String("category", result.Category),
					zap.Int("ingredients", len(result.Rows)),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
		})

		mux.HandleFunc("GET /runs/{id}", runResultHandler(env.Store))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// runResultHandler serves a stored run result. The store returns a nil
// result for an unknown run ID or a run that has not finished.
func runResultHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := st.GetRunResult(r.Context(), r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if result == nil {
			http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
