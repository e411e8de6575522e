package config

const (
	// AppName is the name of the application.
	AppName = "warden"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvDataFile is the environment variable for the guild data file.
	EnvDataFile = `DATA_FILE`

	// EnvBotConfigFile is the environment variable for the bot configuration file.
	EnvBotConfigFile = `BOT_CONFIG_FILE`

	// EnvMessagesFile is the environment variable for the messages file.
	EnvMessagesFile = `MESSAGES_FILE`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// DataFile is the path of the JSON guild data file.
	DataFile string

	// BotConfigFile is the path of the bot configuration file.
	BotConfigFile string

	// MessagesFile is the path of the messages override file.
	MessagesFile string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// Categories are the ticket categories members can pick from.
	Categories []TicketCategory
)

// TicketCategory is a category members open tickets under.
type TicketCategory struct {
	// ID is the identifier of the category.
	ID string `yaml:"id"`

	// Name is the display name of the category.
	Name string `yaml:"name"`

	// Info is the welcome text sent into new tickets of this category.
	// Occurrences of "%n" become newlines.
	Info string `yaml:"info"`
}

// Category returns the category with the given id.
func Category(id string) (TicketCategory, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return TicketCategory{}, false
}
