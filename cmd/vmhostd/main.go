// Command vmhostd serves the HTTP surface described in spec.md §6.1:
// POST /execute, GET /catchups/{id}, POST /run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/xycloo/zephyr-vm-go/config"
	"github.com/xycloo/zephyr-vm-go/exec"
	"github.com/xycloo/zephyr-vm-go/exec/jobs"
	hostpkg "github.com/xycloo/zephyr-vm-go/host"
	"github.com/xycloo/zephyr-vm-go/host/bridge"
	"github.com/xycloo/zephyr-vm-go/host/dbhost"
	"github.com/xycloo/zephyr-vm-go/host/ledgerhost"
)

var log = logger.GetOrCreate("cmd/vmhostd")

type executeBody struct {
	BinaryID uint32 `json:"binary_id"`
	UserID   uint32 `json:"user_id"`
	JWT      string `json:"jwt"`
	Mode     struct {
		EventCatchup []string `json:"EventCatchup"`
		Function     *struct {
			FName     string  `json:"fname"`
			Arguments []int64 `json:"arguments"`
		} `json:"Function"`
	} `json:"mode"`
}

type claims struct {
	TenantID int64 `json:"tenant_id"`
	jwt.RegisteredClaims
}

func parseTenant(token string) (int64, error) {
	parsed := &claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, parsed)
	if err != nil {
		return 0, err
	}
	return parsed.TenantID, nil
}

type server struct {
	wrapper *exec.Wrapper
	jobs    *jobs.Manager
}

func (s *server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var body executeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tenant, err := parseTenant(body.JWT)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad jwt: %v", err), http.StatusUnauthorized)
		return
	}
	identity := hostpkg.Identity{TenantID: tenant}

	if body.Mode.Function != nil {
		result, err := s.wrapper.Run(r.Context(), exec.Request{
			Mode:     exec.ModeFunction,
			BinaryID: body.BinaryID,
			Identity: identity,
			FuncName: body.Mode.Function.FName,
			FuncArgs: body.Mode.Function.Arguments,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, result)
		return
	}

	jobID := s.jobs.AddJob(func() (string, error) {
		return s.wrapper.Run(context.Background(), exec.Request{
			Mode:     exec.ModeEventCatchup,
			BinaryID: body.BinaryID,
			Identity: identity,
		})
	})
	fmt.Fprintf(w, "catchup %d in progress", jobID)
}

func (s *server) handleCatchupStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var id uint32
	fmt.Sscanf(vars["id"], "%d", &id)
	fmt.Fprint(w, string(s.jobs.ReadJob(id)))
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FName string `json:"fname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.wrapper.Run(r.Context(), exec.Request{
		Mode:     exec.ModeFunction,
		FuncName: body.FName,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, result)
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	cacheDB, err := bbolt.Open(c.String("cache-file"), 0o600, nil)
	if err != nil {
		return fmt.Errorf("open cache file: %w", err)
	}
	defer cacheDB.Close()

	jobManager, err := jobs.NewManager(cacheDB)
	if err != nil {
		return err
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s", cfg.ZephyrDBUser, cfg.ZephyrDBPwd, cfg.ZephyrDBHost, cfg.ZephyrDBName)
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	ingestorPool, err := pgxpool.New(context.Background(), cfg.IngestorDB)
	if err != nil {
		return fmt.Errorf("connect ingestor database: %w", err)
	}
	defer ingestorPool.Close()

	wrapper := &exec.Wrapper{
		Programs:       &exec.FileProgramLoader{Dir: c.String("programs-dir")},
		DB:             dbhost.NewPostgresBackend(pool),
		Ledger:         ledgerhost.NewPostgresBackend(ingestorPool),
		Embedded:       bridge.NewStubEmbeddedHost(),
		Bridge:         bridge.DefaultCatalogue(),
		BucketSizePath: cfg.BucketSizeFile,
		DefaultTimeout: 0,
	}

	srv := &server{wrapper: wrapper, jobs: jobManager}

	router := mux.NewRouter()
	router.HandleFunc("/execute", srv.handleExecute).Methods(http.MethodPost)
	router.HandleFunc("/catchups/{id}", srv.handleCatchupStatus).Methods(http.MethodGet)
	router.HandleFunc("/run", srv.handleRun).Methods(http.MethodPost)

	log.Info("listening", "addr", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, router)
}

func main() {
	app := &cli.App{
		Name:  "vmhostd",
		Usage: "serves the metered WebAssembly execution runtime's HTTP surface",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.toml"},
			&cli.StringFlag{Name: "cache-file", Value: "vmhostd.bbolt"},
			&cli.StringFlag{Name: "programs-dir", Value: "./programs"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}
