package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
)

type SolverConfig struct {
	BaseURL              string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout       int    `env:"REQUEST_TIMEOUT" envDefault:"10"`         // 秒
	InitialDelay         int    `env:"INITIAL_DELAY" envDefault:"5000"`         // 毫秒
	PollInterval         int    `env:"POLL_INTERVAL" envDefault:"2000"`         // 毫秒
	MaxPolls             int    `env:"MAX_POLLS" envDefault:"300"`              // 0 表示不限制
	MaxDuration          int    `env:"MAX_DURATION" envDefault:"900"`           // 秒，0 表示不限制
	RetryMax             int    `env:"RETRY_MAX" envDefault:"3"`                // 每次轮询失败后的最大重试次数
	RetryInitialInterval int    `env:"RETRY_INITIAL_INTERVAL" envDefault:"500"` // 毫秒
	Termination          string `env:"TERMINATION" envDefault:"status"`         // status 或 score
	CleanupTimeout       int    `env:"CLEANUP_TIMEOUT" envDefault:"5"`          // 秒
}

type GridConfig struct {
	OriginMinutes int `env:"ORIGIN_MINUTES" envDefault:"510"` // 08:30
	SlotMinutes   int `env:"SLOT_MINUTES" envDefault:"60"`
}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		MaxUploadSize   int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // CSV 导入，10 MiB
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host           string `env:"HOST" envDefault:"localhost"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD"` // 只有 cmd/seed 插入随机用户时需要
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Solver SolverConfig `envPrefix:"SOLVER_"`
	Grid   GridConfig   `envPrefix:"GRID_"`
}

// CLIConfig 是命令行客户端需要的部分，不要求数据库等服务的配置
type CLIConfig struct {
	Solver SolverConfig `envPrefix:"SOLVER_"`
	Grid   GridConfig   `envPrefix:"GRID_"`
}

// LoadDotEnv 把 .env 文件中的变量加载到环境变量中，文件不存在时忽略；已存在的环境变量不会被覆盖
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func parse(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
			// 只返回第一个错误使得日志更清晰
			return aggErr.Errors[0]
		}
		return err
	}
	return nil
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c SolverConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GenerationOptions 把配置中的数值换算成生成流程的参数
func (c SolverConfig) GenerationOptions() (generation.Options, error) {
	policy, err := generation.ParseTerminationPolicy(c.Termination)
	if err != nil {
		return generation.Options{}, err
	}

	return generation.Options{
		InitialDelay:         time.Duration(c.InitialDelay) * time.Millisecond,
		PollInterval:         time.Duration(c.PollInterval) * time.Millisecond,
		MaxPolls:             c.MaxPolls,
		MaxDuration:          time.Duration(c.MaxDuration) * time.Second,
		RetryMax:             c.RetryMax,
		RetryInitialInterval: time.Duration(c.RetryInitialInterval) * time.Millisecond,
		Termination:          policy,
		CleanupTimeout:       time.Duration(c.CleanupTimeout) * time.Second,
	}, nil
}

func (c GridConfig) Grid() (timegrid.Grid, error) {
	if c.SlotMinutes <= 0 {
		return timegrid.Grid{}, errors.New("GRID_SLOT_MINUTES 必须大于 0")
	}
	if c.OriginMinutes < 0 || c.OriginMinutes >= 24*60 {
		return timegrid.Grid{}, errors.New("GRID_ORIGIN_MINUTES 必须在 0 到 1439 之间")
	}
	return timegrid.Grid{OriginMinutes: c.OriginMinutes, SlotMinutes: c.SlotMinutes}, nil
}
