package configs

import "github.com/spf13/viper"

type Configs struct {
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBName        string `mapstructure:"DB_NAME"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	WebServerPort string `mapstructure:"WEB_SERVER_PORT"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	SMTP_HOST     string `mapstructure:"SMTP_HOST"`
	SMTP_PORT     int    `mapstructure:"SMTP_PORT"`
	SMTP_USER     string `mapstructure:"SMTP_USER"`
	SMTP_PASS     string `mapstructure:"SMTP_PASS"`
	SMTP_FROM     string `mapstructure:"SMTP_FROM"`

	// Pipeline de importação
	ImportBatchSize int `mapstructure:"IMPORT_BATCH_SIZE"` // checkpoint a cada N linhas
	MaxPreviewRows  int `mapstructure:"MAX_PREVIEW_ROWS"`  // limite de linhas para arquivos grandes
	LargeFileBytes  int `mapstructure:"LARGE_FILE_BYTES"`  // acima disso usa leitura limitada

	// Auditoria
	AuditCronExpression string   `mapstructure:"AUDIT_CRON_EXPRESSION"` // 6 campos, com segundos
	OrphanWindowMinutes int      `mapstructure:"ORPHAN_WINDOW_MINUTES"` // janela da heurística de linhas órfãs
	AlertRecipients     []string `mapstructure:"ALERT_RECIPIENTS"`

	// Analytics
	AnalyticsCacheTTLSeconds int `mapstructure:"ANALYTICS_CACHE_TTL_SECONDS"`

	LogPath string `mapstructure:"LOG_PATH"` // vazio = somente stdout
}

func LoadConfig(path string) (*Configs, error) {
	var cfg *Configs
	viper.SetConfigName("app_config")
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("WEB_SERVER_PORT", ":8080")

	// Redis
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	// Importação: checkpoint em lotes de centenas; preview limitado para
	// arquivos acima de 5MB
	viper.SetDefault("IMPORT_BATCH_SIZE", 200)
	viper.SetDefault("MAX_PREVIEW_ROWS", 3000)
	viper.SetDefault("LARGE_FILE_BYTES", 5*1024*1024)

	// Auditoria noturna às 3h
	viper.SetDefault("AUDIT_CRON_EXPRESSION", "0 0 3 * * *")
	viper.SetDefault("ORPHAN_WINDOW_MINUTES", 60)
	viper.SetDefault("ALERT_RECIPIENTS", []string{})

	viper.SetDefault("ANALYTICS_CACHE_TTL_SECONDS", 300)

	viper.SetDefault("LOG_PATH", "")

	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(err)
	}

	return cfg, nil
}
