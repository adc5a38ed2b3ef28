package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Auth         Auth         `mapstructure:",squash"`
	Analysis     Analysis     `mapstructure:",squash"`
	AnomalySweep AnomalySweep `mapstructure:",squash"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

// Analysis concentra os parâmetros operacionais do motor de análise
type Analysis struct {
	LookbackDays       int `mapstructure:"analysis_lookback_days"`
	RecordCap          int `mapstructure:"analysis_record_cap"`
	AlertWindowDays    int `mapstructure:"analysis_alert_window_days"`
	ChurnCacheDays     int `mapstructure:"analysis_churn_cache_days"`
	ForecastDaysDefault int `mapstructure:"analysis_forecast_days_default"`
}

// AnomalySweep configura a varredura noturna de anomalias
type AnomalySweep struct {
	CronSchedule string `mapstructure:"anomaly_sweep_cron"`
	LookbackDays int    `mapstructure:"anomaly_sweep_lookback_days"`
	Enabled      bool   `mapstructure:"anomaly_sweep_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/sales_analytics")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("AUTH_SECRET", "your_auth_secret")

	// Defaults do motor de análise
	viper.SetDefault("ANALYSIS_LOOKBACK_DAYS", 30)          // Janela padrão de análise
	viper.SetDefault("ANALYSIS_RECORD_CAP", 2000)           // Teto de registros por análise
	viper.SetDefault("ANALYSIS_ALERT_WINDOW_DAYS", 7)       // Janela de alertas recentes
	viper.SetDefault("ANALYSIS_CHURN_CACHE_DAYS", 7)        // Validade do cache de churn
	viper.SetDefault("ANALYSIS_FORECAST_DAYS_DEFAULT", 30)  // Horizonte padrão de previsão

	// Defaults da varredura noturna de anomalias
	viper.SetDefault("ANOMALY_SWEEP_CRON", "0 3 * * *") // Todos os dias às 3h da manhã
	viper.SetDefault("ANOMALY_SWEEP_LOOKBACK_DAYS", 30)
	viper.SetDefault("ANOMALY_SWEEP_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	// Tentar ler o arquivo .env com o Viper (opcional, já que usamos godotenv)
	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	// Obter diretório atual
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../.env"),            // Diretório acima
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		logrus.Info("Tentando carregar .env de:", location)
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
