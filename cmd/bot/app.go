package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/config"
	"github.com/example/warden/cmd/bot/monitoring"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/entities"
	"github.com/example/warden/pkg/logging"
	"github.com/example/warden/pkg/messages"
	"github.com/example/warden/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// Guilds returns the guild data access layer.
	Guilds() dataaccess.GuildDal

	// Groups returns the global permission group registry.
	Groups() *entities.GroupRegistry

	// Messages returns the message catalogue.
	Messages() *messages.Catalogue

	// Notify publishes an internal ticket event.
	Notify(e Event)

	// TicketLimiter returns the ticket-creation rate limiter of a guild.
	TicketLimiter(guildID string) *rate.Limiter
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// store is the guild data store.
	store *dataaccess.JSONFileStore

	// guilds is the guild data access layer.
	guilds dataaccess.GuildDal

	// groups is the global permission group registry.
	groups *entities.GroupRegistry

	// msgs is the message catalogue.
	msgs *messages.Catalogue

	// eventNotifier is the channel for internal ticket events. It is
	// buffered to prevent blocking.
	eventNotifier chan Event

	// limiterMu guards limiters.
	limiterMu sync.Mutex

	// limiters are the per-guild ticket-creation rate limiters.
	limiters map[string]*rate.Limiter

	// cmdMu guards commands.
	cmdMu sync.Mutex

	// commands are the slash commands registered per guild, kept for
	// removal on shutdown.
	commands map[string][]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger:   l,
		r:        r,
		limiters: make(map[string]*rate.Limiter),
		commands: make(map[string][]*discordgo.ApplicationCommand),
	}
}

func (a *App) Run() error {
	// Open the guild data store before anything touches Discord.
	store, err := dataaccess.NewJSONFileStore(config.DataFile)
	if err != nil {
		return fmt.Errorf("error opening data store: %w", err)
	}
	a.store = store
	a.guilds = dataaccess.NewGuildDal(store, a.Logger)
	a.groups = newGroupRegistry()

	msgs, err := messages.Load(config.MessagesFile)
	if err != nil {
		return fmt.Errorf("error loading messages: %w", err)
	}
	a.msgs = msgs

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsAll

	if a.eventNotifier == nil {
		// Buffered so that handlers never block on slow subscribers.
		a.eventNotifier = make(chan Event, 100)
	}

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandController{
			ticketsCmd.Name: ticketsCmdController,
			ticketCmd.Name:  ticketCmdController,
		},
		// Component Controllers
		map[string]commandProcessor{
			SetupSelectMenuID:        setupSelectHandler,
			CategoriesDropdownID:     categorySelectHandler,
			TicketAdminDropdownID:    ticketAdminSelectHandler,
			TicketMarkOpenButtonID:   markOpenHandler,
			TicketMarkSolvedButtonID: markSolvedHandler,
		}))
	return nil
}

// registerGuildCommands registers the slash commands for one guild. Called
// from the guild-create handler, which the gateway fires for every guild on
// connect.
func (a *App) registerGuildCommands(guildID string) error {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	if _, ok := a.commands[guildID]; ok {
		return nil
	}

	var created []*discordgo.ApplicationCommand
	for _, cmd := range []*discordgo.ApplicationCommand{ticketsCmd, ticketCmd} {
		c, err := a.s.ApplicationCommandCreate(config.ApplicationId, guildID, cmd)
		if err != nil {
			return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, guildID, err)
		}
		created = append(created, c)
	}
	a.commands[guildID] = created
	return nil
}

func (a *App) unregisterSlashCommands() error {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	for guildID, cmds := range a.commands {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(config.ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
		delete(a.commands, guildID)
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Guilds() dataaccess.GuildDal {
	return a.guilds
}

func (a *App) Groups() *entities.GroupRegistry {
	return a.groups
}

func (a *App) Messages() *messages.Catalogue {
	return a.msgs
}

func (a *App) Notify(e Event) {
	a.eventNotifier <- e
}

// TicketLimiter returns the ticket-creation limiter of a guild, creating it
// on first use. Three tickets in quick succession, then one every ten
// seconds.
func (a *App) TicketLimiter(guildID string) *rate.Limiter {
	a.limiterMu.Lock()
	defer a.limiterMu.Unlock()

	l, ok := a.limiters[guildID]
	if !ok {
		l = rate.NewLimiter(rate.Every(10*time.Second), 3)
		a.limiters[guildID] = l
	}
	return l
}
