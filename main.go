package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/fraud"
	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/game"
	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/grocery"
	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/sdr"
	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	llmx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/llm"
	persistx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/persist"
	configx "github.com/tanpawarit/Chative-Voice-Tool-Agents/pkg/config"
	_ "github.com/tanpawarit/Chative-Voice-Tool-Agents/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Voice-Tool-Agents/pkg/openrouter"
	pgstorex "github.com/tanpawarit/Chative-Voice-Tool-Agents/pkg/pgstore"
)

type AppConfig struct {
	Variant        string `envconfig:"VARIANT" default:"sdr"`
	FAQPath        string `envconfig:"FAQ_PATH" default:"data/faq.json"`
	GroceryPath    string `envconfig:"GROCERY_PATH" default:"data/grocery.json"`
	FraudCasesPath string `envconfig:"FRAUD_CASES_PATH" default:"data/fraud_cases.json"`
	LeadsDir       string `envconfig:"LEADS_DIR" default:"leads"`
	OrdersDir      string `envconfig:"ORDERS_DIR" default:"orders"`
	SavesDir       string `envconfig:"SAVES_DIR" default:"saves"`
	Currency       string `envconfig:"CURRENCY" default:"INR"`
	BankName       string `envconfig:"BANK_NAME"`
	StartLocation  string `envconfig:"START_LOCATION"`
}

func (c AppConfig) Validate() error {
	if _, ok := contractx.ParseAgentType(strings.TrimSpace(c.Variant)); !ok {
		return fmt.Errorf("%w: unknown variant %q", contractx.ErrValidation, c.Variant)
	}
	return nil
}

type stores struct {
	faq     *catalogx.Store[catalogx.FAQ]
	grocery *catalogx.Store[catalogx.Grocery]
	fraud   *catalogx.FraudStore
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("agent stopped")
	}
}

func run() error {
	appCfg, err := configx.New[AppConfig]("AGENT")
	if err != nil {
		return err
	}
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return err
	}
	dbCfg, err := configx.New[pgstorex.Config]("DATABASE")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := stores{
		faq:     catalogx.NewFAQStore(appCfg.FAQPath),
		grocery: catalogx.NewGroceryStore(appCfg.GroceryPath),
		fraud:   catalogx.NewFraudStore(appCfg.FraudCasesPath),
	}
	prewarm(ctx, st)

	var recorders []persistx.Recorder
	if dbCfg.Enabled() {
		db, mirror, err := openMirror(ctx, *dbCfg)
		if err != nil {
			return fmt.Errorf("checkpoint mirror unavailable: %w", err)
		}
		defer db.Close()
		recorders = append(recorders, mirror)
	}

	registry, err := buildRegistry(*appCfg, st, recorders)
	if err != nil {
		return fmt.Errorf("build variants: %w", err)
	}
	agentType, _ := contractx.ParseAgentType(strings.TrimSpace(appCfg.Variant))
	variant, err := registry.Get(agentType)
	if err != nil {
		return err
	}

	manager, err := orchestrator.NewManager(variant, orchestrator.WithOnOpen(func(s contractx.Session) {
		log.Debug().Str("session_id", s.ID()).Int("tools", len(s.Tools())).Msg("session tools bound")
	}))
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	session, err := manager.Open(sessionID)
	if err != nil {
		return err
	}
	defer manager.Close(sessionID)

	if llmCfg.Enabled() {
		conv, err := newConversation(ctx, *llmCfg, variant, session)
		if err != nil {
			return err
		}
		return runChat(ctx, conv, variant, session, os.Stdin, os.Stdout)
	}
	return runTools(ctx, manager, sessionID, os.Stdin, os.Stdout)
}

// prewarm loads every catalog concurrently before the first session starts.
// A broken catalog is logged and served empty.
func prewarm(ctx context.Context, st stores) {
	started := time.Now()
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(st.faq.Reload)
	p.Go(st.grocery.Reload)
	p.Go(st.fraud.Reload)
	if err := p.Wait(); err != nil {
		log.Warn().Err(err).Msg("catalog prewarm incomplete")
	}
	log.Info().
		Dur("took", time.Since(started)).
		Int("faq_entries", len(st.faq.Snapshot().Entries)).
		Int("products", len(st.grocery.Snapshot().Products)).
		Int("fraud_cases", len(st.fraud.Snapshot())).
		Msg("catalogs loaded")
}

func openMirror(ctx context.Context, cfg pgstorex.Config) (*bun.DB, *persistx.Mirror, error) {
	db, err := pgstorex.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pgstorex.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	mirror, err := persistx.NewMirror(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := mirror.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, mirror, nil
}

func newSink(dir, prefix string, recorders []persistx.Recorder) (contractx.Sink, error) {
	fs, err := persistx.NewFileSink(dir, prefix)
	if err != nil {
		return nil, err
	}
	if len(recorders) == 0 {
		return fs, nil
	}
	return persistx.NewTee(fs, recorders...), nil
}

func buildRegistry(cfg AppConfig, st stores, recorders []persistx.Recorder) (*orchestrator.Registry, error) {
	leads, err := newSink(cfg.LeadsDir, "lead", recorders)
	if err != nil {
		return nil, err
	}
	orders, err := newSink(cfg.OrdersDir, "order", recorders)
	if err != nil {
		return nil, err
	}
	saves, err := newSink(cfg.SavesDir, "save", recorders)
	if err != nil {
		return nil, err
	}

	sdrVariant, err := sdr.New(sdr.Deps{FAQ: st.faq, Leads: leads})
	if err != nil {
		return nil, err
	}
	groceryVariant, err := grocery.New(grocery.Deps{Catalog: st.grocery, Orders: orders, Currency: cfg.Currency})
	if err != nil {
		return nil, err
	}
	fraudVariant, err := fraud.New(fraud.Deps{Cases: st.fraud, BankName: cfg.BankName})
	if err != nil {
		return nil, err
	}
	gameVariant, err := game.New(game.Deps{Saves: saves, StartLocation: cfg.StartLocation})
	if err != nil {
		return nil, err
	}
	return orchestrator.NewRegistry(sdrVariant, groceryVariant, fraudVariant, gameVariant)
}

func newConversation(ctx context.Context, cfg llmx.Config, variant contractx.Variant, session contractx.Session) (*orchestrator.Conversation, error) {
	orCfg := cfg.OpenRouter()
	if client := openrouterx.NewClient(orCfg); client != nil {
		listed, err := openrouterx.HasModel(ctx, client, orCfg.Model)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("model catalog unavailable")
		case !listed:
			log.Warn().Str("model", orCfg.Model).Msg("model not listed by endpoint")
		}
	}

	chatModel, err := orCfg.New(ctx)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewConversation(chatModel, session, variant.Instructions(), orchestrator.ConversationConfig{
		MaxToolRounds: cfg.MaxToolRounds,
	})
}
