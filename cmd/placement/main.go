package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pranavkale/placement-cell/internal/handler"
	"github.com/pranavkale/placement-cell/internal/judge"
	"github.com/pranavkale/placement-cell/internal/llm"
	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/proctor"
	"github.com/pranavkale/placement-cell/internal/round"
	"github.com/pranavkale/placement-cell/internal/store"
)

var defaultDepartments = []string{
	"Computer Engineering",
	"Information Technology",
	"Electronics and Telecommunication",
	"Mechanical Engineering",
	"Civil Engineering",
	"MBA",
	"MCA",
}

var defaultTechnicalDepartments = []string{
	"Computer Engineering",
	"Information Technology",
	"Electronics and Telecommunication",
	"MCA",
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "placement",
		Short: "Campus placement assessment platform",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `placement --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP placement server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "placement.db", "SQLite database path")
	f.String("aptitude-questions", "questions/aptitude_sample.json", "Path to aptitude questions JSON")
	f.String("coding-questions", "questions/coding_sample.json", "Path to coding questions JSON")
	f.String("non-technical-questions", "questions/non_technical_sample.json", "Path to non-technical questions JSON")
	f.String("judge0-url", "https://judge0-ce.p.rapidapi.com", "Judge0 API base URL")
	f.String("judge0-key", "", "Judge0 API key (empty enables simulation mode)")
	f.String("judge0-host", "judge0-ce.p.rapidapi.com", "Judge0 API host header")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty uses the default)")
	f.String("llm-key", "", "API key for answer and interview scoring (empty disables scoring)")
	f.String("llm-model", "gpt-4o-mini", "Model name for scoring")
	f.Int("aptitude-count", 60, "Number of aptitude questions per test")
	f.Int("max-violations", 5, "Proctoring violations allowed before a student is flagged")
	f.StringSlice("departments", defaultDepartments, "Registered department names")
	f.StringSlice("technical-departments", defaultTechnicalDepartments, "Departments routed to the coding round")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.StringSlice("admin-emails", nil, "Admin account emails to seed")
	f.String("admin-password", "", "Initial admin password (or set PLACEMENT_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all student results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "placement.db", "SQLite database path")
	f.String("institute", "", "Institute name for output metadata")
	f.Int("aptitude-count", 60, "Number of aptitude questions per test")
	f.Int("max-violations", 5, "Proctoring violations allowed before a student is flagged")
	f.StringSlice("departments", defaultDepartments, "Registered department names")
	f.StringSlice("technical-departments", defaultTechnicalDepartments, "Departments routed to the coding round")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PLACEMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("placement")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/placement")
	v.AddConfigPath("/etc/placement")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func configFromViper(v *viper.Viper) model.Config {
	return model.Config{
		Departments:          v.GetStringSlice("departments"),
		TechnicalDepartments: v.GetStringSlice("technical-departments"),
		AptitudeCount:        v.GetInt("aptitude-count"),
		MaxViolations:        v.GetInt("max-violations"),
		SecureCookies:        v.GetBool("secure-cookies"),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cfg := configFromViper(v)

	if removed, err := db.CleanupExpiredSessions(); err != nil {
		return fmt.Errorf("cleanup expired sessions: %w", err)
	} else if removed > 0 {
		slog.Info("removed expired sessions", "count", removed)
	}

	if err := seedAdmins(db, v.GetStringSlice("admin-emails"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}

	if err := loadQuestionBanks(db, cfg, v); err != nil {
		return fmt.Errorf("load question banks: %w", err)
	}

	if err := logBankSizes(db); err != nil {
		return fmt.Errorf("count question banks: %w", err)
	}

	judgeClient := judge.New(v.GetString("judge0-url"), v.GetString("judge0-key"), v.GetString("judge0-host"))
	if !judgeClient.Configured() {
		slog.Warn("no Judge0 API key, code execution runs in simulation mode")
	}

	llmClient := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if !llmClient.Enabled() {
		slog.Warn("no LLM API key, answer and interview scoring is disabled")
	}

	engine := round.NewEngine(db, cfg)
	acc := proctor.New(db, cfg.MaxViolations)

	h := handler.New(db, engine, judgeClient, llmClient, acc, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"aptitude_count", cfg.AptitudeCount,
		"max_violations", cfg.MaxViolations,
		"departments", len(cfg.Departments),
		"judge0_configured", judgeClient.Configured(),
		"llm_enabled", llmClient.Enabled(),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllStudents(configFromViper(v))
	if err != nil {
		return fmt.Errorf("export students: %w", err)
	}
	export.Institute = v.GetString("institute")

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// loadQuestionBanks imports the three question files, skipping files whose
// content hash is unchanged since the last import. Aptitude entries are
// seeded into every configured department partition.
func loadQuestionBanks(db *store.Store, cfg model.Config, v *viper.Viper) error {
	aptitudePath := v.GetString("aptitude-questions")
	if err := importFile(db, aptitudePath, func(data []byte) (int, error) {
		var imports []model.AptitudeQuestionImport
		if err := json.Unmarshal(data, &imports); err != nil {
			return 0, err
		}
		for _, qi := range imports {
			for _, dept := range cfg.Departments {
				_, err := db.InsertAptitudeQuestion(model.AptitudeQuestion{
					Department:    dept,
					Question:      qi.Question,
					OptionA:       qi.OptionA,
					OptionB:       qi.OptionB,
					OptionC:       qi.OptionC,
					OptionD:       qi.OptionD,
					CorrectAnswer: qi.Correct,
				})
				if err != nil {
					return 0, err
				}
			}
		}
		return len(imports), nil
	}); err != nil {
		return err
	}

	codingPath := v.GetString("coding-questions")
	if err := importFile(db, codingPath, func(data []byte) (int, error) {
		var imports []model.CodingQuestionImport
		if err := json.Unmarshal(data, &imports); err != nil {
			return 0, err
		}
		for _, qi := range imports {
			_, err := db.InsertCodingQuestion(model.CodingQuestion{
				Title:          qi.Title,
				Description:    qi.Description,
				Difficulty:     qi.Difficulty,
				TestCases:      qi.TestCases,
				IsSQL:          qi.IsSQL,
				ExpectedOutput: qi.ExpectedOutput,
			})
			if err != nil {
				return 0, err
			}
		}
		return len(imports), nil
	}); err != nil {
		return err
	}

	ntPath := v.GetString("non-technical-questions")
	return importFile(db, ntPath, func(data []byte) (int, error) {
		var imports []model.NonTechnicalQuestionImport
		if err := json.Unmarshal(data, &imports); err != nil {
			return 0, err
		}
		for _, qi := range imports {
			_, err := db.InsertNonTechnicalQuestion(model.NonTechnicalQuestion{Question: qi.Question})
			if err != nil {
				return 0, err
			}
		}
		return len(imports), nil
	})
}

func importFile(db *store.Store, path string, insert func([]byte) (int, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := db.GetImportedFileHash(path)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}

	if storedHash == hash {
		slog.Info("questions file unchanged, skipping", "path", path)
		return nil
	}
	if storedHash != "" {
		slog.Warn("questions file changed since last import, skipping to avoid breaking recorded attempts",
			"path", path)
		return nil
	}

	count, err := insert(data)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if err := db.SetImportedFileHash(path, hash); err != nil {
		return fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("imported questions", "path", path, "count", count)
	return nil
}

// logBankSizes reports the loaded question-bank and user counts so an
// operator can spot an empty or half-imported bank before students do.
func logBankSizes(db *store.Store) error {
	aptitude, err := db.AptitudeQuestionCount()
	if err != nil {
		return err
	}
	coding, err := db.CodingQuestionCount()
	if err != nil {
		return err
	}
	nonTechnical, err := db.NonTechnicalQuestionCount()
	if err != nil {
		return err
	}
	users, err := db.UserCount()
	if err != nil {
		return err
	}
	slog.Info("question banks loaded",
		"aptitude", aptitude,
		"coding", coding,
		"non_technical", nonTechnical,
		"users", users,
	)
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// seedAdmins creates admin accounts on first run. Existing emails are left
// untouched so the flag can stay set across restarts.
func seedAdmins(db *store.Store, emails []string, password string) error {
	if len(emails) == 0 {
		return nil
	}
	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PLACEMENT_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	for i, email := range emails {
		existing, err := db.GetUserByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		_, err = db.CreateUser(model.User{
			Email:        email,
			FirstName:    "Placement",
			LastName:     "Admin",
			PRN:          fmt.Sprintf("ADMIN-%d", i+1),
			PasswordHash: string(hash),
			Department:   "",
			Institute:    "",
			Role:         model.UserRoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("create admin user %s: %w", email, err)
		}
		slog.Info("seeded admin user", "email", email)
	}
	return nil
}
