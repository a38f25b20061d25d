package webapp

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/ts4z/chipclock/dep"
	"github.com/ts4z/chipclock/gossip"
	"github.com/ts4z/chipclock/he"
	"github.com/ts4z/chipclock/middleware"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/protocol"
	"github.com/ts4z/chipclock/settlement"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/textutil"
	"github.com/ts4z/chipclock/tournament"
	"github.com/ts4z/chipclock/urlpath"
	"github.com/ts4z/chipclock/varz"
)

// LongPollTimeout bounds how long /wait holds a request before answering
// 204 No Content.
var LongPollTimeout = 50 * time.Second

// MaxPreviewPlayers caps the chips a payout preview will take.
var MaxPreviewPlayers = 10_000

var (
	missingStructureFallbacks = varz.NewInt("missingStructureFallbacks")
	badPreviewRequests        = varz.NewInt("badPreviewRequests")
)

type nower interface {
	Now() time.Time
}

// Config holds the configuration for creating a new App.
type Config struct {
	TournamentStorage state.TournamentStorage
	StructureStorage  state.StructureStorage
	PayoutStorage     state.PayoutStorage
	Settler           *settlement.Settler
	Gossiper          *gossip.TournamentGossiper // optional
	Clock             nower
	FallbackMinutes   int
	RoundingUnit      int64
	AllowedOrigins    []string
}

// App is the JSON API.
type App struct {
	// dependencies
	tournamentStorage state.TournamentStorage
	structureStorage  state.StructureStorage
	payoutStorage     state.PayoutStorage
	settler           *settlement.Settler
	gossiper          *gossip.TournamentGossiper
	clock             nower
	resolver          *tournament.Resolver
	roundingUnit      int64

	// internals
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a new App with the given configuration.
func New(config *Config) *App {
	app := &App{
		tournamentStorage: dep.Required(config.TournamentStorage),
		structureStorage:  dep.Required(config.StructureStorage),
		payoutStorage:     dep.Required(config.PayoutStorage),
		settler:           dep.Required(config.Settler),
		gossiper:          config.Gossiper,
		clock:             dep.Required(config.Clock),
		roundingUnit:      config.RoundingUnit,
		mux:               http.NewServeMux(),
	}
	app.resolver = tournament.NewResolver(app.clock, config.FallbackMinutes)

	// Stack the handlers together.
	noStore := middleware.NewCacheControl(&middleware.CacheControlConfig{
		Maybe: func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, "/api/payout/") || r.Method != http.MethodGet
		},
		NoStore: true,
		Next:    app.mux,
	})
	builtinPayouts := middleware.NewCacheControl(&middleware.CacheControlConfig{
		Maybe: func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/api/payout/-") && r.Method == http.MethodGet
		},
		MaxAge: time.Hour,
		Next:   noStore,
	})
	logger := middleware.NewRequestLogger(builtinPayouts, app.clock)
	for _, origin := range config.AllowedOrigins {
		log.Printf("CORS allowing origin %s", origin)
	}
	corsMW := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	app.handler = corsMW.Handler(logger)

	app.InstallHandlers()

	return app
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) handleFunc(pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		handler(r.Context(), w, r)
	})
}

func (app *App) handleFuncTakingID(pattern string, handler func(context.Context, int64, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		id, err := urlpath.IDPathValue(w, r)
		if err != nil {
			return
		}
		handler(ctx, id, w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		he.SendErrorToHTTPClient(w, "marshal response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writ, err := w.Write(bytes)
	if err != nil {
		log.Printf("error writing response to client: %v", err)
	} else if writ != len(bytes) {
		log.Println("short write to client")
	}
}

// structureFor fetches the tournament's structure.  A tournament without
// one, or whose structure can't be read, gets nil and runs on fallback
// levels; the clock never fails for want of a structure.
func (app *App) structureFor(ctx context.Context, t *model.Tournament) *model.Structure {
	if t.StructureID == 0 {
		return nil
	}
	s, err := app.structureStorage.FetchStructure(ctx, t.StructureID)
	if err != nil {
		log.Printf("warning: tournament %d: can't fetch structure %d, using fallback levels: %v",
			t.TournamentID, t.StructureID, err)
		missingStructureFallbacks.Add(1)
		return nil
	}
	return s
}

func (app *App) handleAPIClock(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	t, err := app.tournamentStorage.FetchTournament(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get tournament", err)
		return
	}
	writeJSON(w, http.StatusOK, app.resolver.Snapshot(t, app.structureFor(ctx, t)))
}

// handleAPIWait long-polls: it answers with a fresh clock snapshot once the
// tournament's version differs from ?version=, or 204 after LongPollTimeout.
func (app *App) handleAPIWait(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil {
		he.SendErrorToHTTPClient(w, "wait", he.HTTPCodedErrorf(http.StatusBadRequest, "bad or missing version: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, LongPollTimeout)
	defer cancel()
	t, err := app.gossiper.Wait(ctx, id, version)
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		he.SendErrorToHTTPClient(w, "wait", err)
		return
	}
	writeJSON(w, http.StatusOK, app.resolver.Snapshot(t, app.structureFor(ctx, t)))
}

func (app *App) handleAPITournament(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	t, err := app.tournamentStorage.FetchTournament(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get tournament", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type imbalanceResponse struct {
	Error       string `json:"error"`
	Issued      int64  `json:"issued"`
	Counted     int64  `json:"counted"`
	Discrepancy int64  `json:"discrepancy"`
}

// settlementError gives settlement failures the right status code.  A chip
// imbalance goes back as JSON so the operator can see how far off it is.
func settlementError(w http.ResponseWriter, err error) {
	var imbalance *settlement.ChipImbalanceError
	switch {
	case errors.As(err, &imbalance):
		log.Printf("refusing settlement: %v", err)
		writeJSON(w, http.StatusConflict, &imbalanceResponse{
			Error:       imbalance.Error(),
			Issued:      imbalance.Issued,
			Counted:     imbalance.Counted,
			Discrepancy: imbalance.Discrepancy(),
		})
	case errors.Is(err, settlement.ErrAlreadySettled),
		errors.Is(err, settlement.ErrNotInProgress),
		errors.Is(err, state.ErrVersionConflict):
		he.SendErrorToHTTPClient(w, "settle", he.New(http.StatusConflict, err))
	case errors.Is(err, settlement.ErrNoPlayers):
		he.SendErrorToHTTPClient(w, "settle", he.New(http.StatusUnprocessableEntity, err))
	default:
		he.SendErrorToHTTPClient(w, "settle", err)
	}
}

func (app *App) handleAPISettle(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	res, err := app.settler.Settle(ctx, id)
	if err != nil {
		settlementError(w, err)
		return
	}
	if app.gossiper != nil {
		go app.gossiper.NotifyChanged(context.WithoutCancel(ctx), id)
	}
	writeJSON(w, http.StatusOK, res)
}

func (app *App) handleAPISettlePlan(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	res, err := app.settler.Plan(ctx, id)
	if err != nil {
		settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type previewRequest struct {
	PayoutStructureID int64                     `json:"payout_structure_id"`
	PayoutStructure   *paytable.PayoutStructure `json:"payout_structure,omitempty"`
	PrizePool         int64                     `json:"prize_pool"`
	Chips             []int64                   `json:"chips"`
}

type previewResponse struct {
	ProtocolVersion int      `json:"protocol_version"`
	Name            string   `json:"name"`
	Places          []string `json:"places"`
	*paytable.Payout
	Problems []string `json:"problems,omitempty"`
}

// handleAPIPayoutPreview computes a payout without touching any tournament.
// The structure comes inline or by id.  Chips are sorted for the caller,
// since finishing order is what they mean.
func (app *App) handleAPIPayoutPreview(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	req := &previewRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		badPreviewRequests.Add(1)
		he.SendErrorToHTTPClient(w, "decode request", he.HTTPCodedErrorf(http.StatusBadRequest, "invalid JSON: %w", err))
		return
	}
	if req.PrizePool < 0 {
		badPreviewRequests.Add(1)
		he.SendErrorToHTTPClient(w, "preview payout", he.HTTPCodedErrorf(http.StatusBadRequest, "prize pool is negative"))
		return
	}

	if len(req.Chips) > MaxPreviewPlayers {
		badPreviewRequests.Add(1)
		he.SendErrorToHTTPClient(w, "preview payout", he.HTTPCodedErrorf(http.StatusBadRequest,
			"%d players is more than %d", len(req.Chips), MaxPreviewPlayers))
		return
	}

	ps := req.PayoutStructure
	if ps == nil {
		var err error
		if ps, err = app.payoutStorage.FetchPayoutStructure(ctx, req.PayoutStructureID); err != nil {
			he.SendErrorToHTTPClient(w, "get payout structure", err)
			return
		}
	}

	chips := append([]int64(nil), req.Chips...)
	slices.SortStableFunc(chips, func(a, b int64) int { return cmp.Compare(b, a) })
	p, err := ps.Payout(req.PrizePool, chips, app.roundingUnit)
	if err != nil {
		badPreviewRequests.Add(1)
		he.SendErrorToHTTPClient(w, "preview payout", he.New(http.StatusUnprocessableEntity, err))
		return
	}

	places := make([]string, len(p.Amounts))
	for i := range places {
		places[i] = textutil.FormatPlace(i + 1)
	}
	writeJSON(w, http.StatusOK, &previewResponse{
		ProtocolVersion: protocol.Version,
		Name:            ps.Name,
		Places:          places,
		Payout:          p,
		Problems:        ps.Validate(),
	})
}

type payoutStructureResponse struct {
	*paytable.PayoutStructure
	Problems []string `json:"problems,omitempty"`
}

func (app *App) handleAPIPayoutStructure(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	ps, err := app.payoutStorage.FetchPayoutStructure(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get payout structure", err)
		return
	}
	writeJSON(w, http.StatusOK, &payoutStructureResponse{PayoutStructure: ps, Problems: ps.Validate()})
}

func (app *App) handleAPIPayoutStructures(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	slugs, err := app.payoutStorage.FetchPayoutStructureSlugs(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "list payout structures", err)
		return
	}
	writeJSON(w, http.StatusOK, slugs)
}

func (app *App) handleAPIStructure(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	s, err := app.structureStorage.FetchStructure(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get structure", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (app *App) handleAPIStructures(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	slugs, err := app.structureStorage.FetchStructureSlugs(ctx, 0, 100)
	if err != nil {
		he.SendErrorToHTTPClient(w, "list structures", err)
		return
	}
	writeJSON(w, http.StatusOK, slugs)
}

// InstallHandlers registers all HTTP routes.
func (app *App) InstallHandlers() {
	app.handleFuncTakingID("GET /api/tournament/{id}", app.handleAPITournament)
	app.handleFuncTakingID("GET /api/tournament/{id}/clock", app.handleAPIClock)
	if app.gossiper != nil {
		app.handleFuncTakingID("GET /api/tournament/{id}/wait", app.handleAPIWait)
	}
	app.handleFuncTakingID("GET /api/tournament/{id}/settle", app.handleAPISettlePlan)
	app.handleFuncTakingID("POST /api/tournament/{id}/settle", app.handleAPISettle)

	app.handleFunc("GET /api/payout/", app.handleAPIPayoutStructures)
	app.handleFuncTakingID("GET /api/payout/{id}", app.handleAPIPayoutStructure)
	app.handleFunc("POST /api/payout/preview", app.handleAPIPayoutPreview)

	app.handleFunc("GET /api/structure/", app.handleAPIStructures)
	app.handleFuncTakingID("GET /api/structure/{id}", app.handleAPIStructure)

	app.mux.Handle("GET /debug/vars", expvar.Handler())

	app.handleFunc("GET /robots.txt", func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
	})
}

// Wrapper to just return the input context.
func contextualizer(ctx context.Context) func(net.Listener) context.Context {
	return func(_ net.Listener) context.Context {
		return ctx
	}
}

// Serve runs the HTTP server on the given listen address until ctx is
// cancelled or the server fails.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	server := &http.Server{
		Addr:        listenAddress,
		Handler:     app.handler,
		BaseContext: contextualizer(ctx),
		ReadTimeout: 10 * time.Second,
		// Settlement holds a transaction open; keep this generous.
		WriteTimeout: 1 * time.Minute,
		IdleTimeout:  10 * time.Minute,
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		wg.Wait()
		return nil
	}
	return fmt.Errorf("server exited: %w", err)
}
