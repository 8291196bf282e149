package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// MailConfig 定义邮件拉取会话的核心配置
type MailConfig struct {
	Mailbox            string        // 默认收件箱名称，默认 "INBOX"
	FetchWindow        int           // 单账号拉取的最近邮件数上限，默认 20
	ConnectTimeout     time.Duration // 建连超时，默认 10s
	AuthTimeout        time.Duration // 认证超时（独立于建连超时），默认 5s
	CommandTimeout     time.Duration // 登录后单条协议命令的超时，默认 30s
	InsecureSkipVerify bool          // 是否跳过证书校验（自签名服务器需显式开启）
}

// SendConfig 定义外发投递的配置
type SendConfig struct {
	ConnectTimeout time.Duration // SMTP 建连超时，默认 10s
	CommandTimeout time.Duration // SMTP 命令超时，默认 30s
	RatePerMinute  int           // 每分钟允许的外发次数，默认 30
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色控制台输出
	File        string // 日志文件路径，留空仅输出到标准输出
}

// DatabaseConfig 定义账号注册表的数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存注册表
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig
	Mail     MailConfig
	Send     SendConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILHUB_
// 例如: MAILHUB_SERVER_PORT, MAILHUB_MAIL_INSECURE_SKIP_VERIFY
//
// 证书校验默认开启；连接自签名邮件服务器的运维方需要显式设置
// MAILHUB_MAIL_INSECURE_SKIP_VERIFY=true 放宽校验。
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("mailhub")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("mail.mailbox", "INBOX")
	viper.SetDefault("mail.fetch_window", 20)
	viper.SetDefault("mail.connect_timeout", "10s")
	viper.SetDefault("mail.auth_timeout", "5s")
	viper.SetDefault("mail.command_timeout", "30s")
	viper.SetDefault("mail.insecure_skip_verify", false)
	viper.SetDefault("send.connect_timeout", "10s")
	viper.SetDefault("send.command_timeout", "30s")
	viper.SetDefault("send.rate_per_minute", 30)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存注册表
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	connectTimeout, err := time.ParseDuration(viper.GetString("mail.connect_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mail.connect_timeout: %w", err)
	}
	authTimeout, err := time.ParseDuration(viper.GetString("mail.auth_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mail.auth_timeout: %w", err)
	}
	commandTimeout, err := time.ParseDuration(viper.GetString("mail.command_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mail.command_timeout: %w", err)
	}

	sendConnectTimeout, err := time.ParseDuration(viper.GetString("send.connect_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid send.connect_timeout: %w", err)
	}
	sendCommandTimeout, err := time.ParseDuration(viper.GetString("send.command_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid send.command_timeout: %w", err)
	}

	fetchWindow := viper.GetInt("mail.fetch_window")
	if fetchWindow <= 0 {
		fetchWindow = 20
	}

	ratePerMinute := viper.GetInt("send.rate_per_minute")
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}

	mailbox := strings.TrimSpace(viper.GetString("mail.mailbox"))
	if mailbox == "" {
		return nil, fmt.Errorf("mail.mailbox must not be empty")
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Mail: MailConfig{
			Mailbox:            mailbox,
			FetchWindow:        fetchWindow,
			ConnectTimeout:     connectTimeout,
			AuthTimeout:        authTimeout,
			CommandTimeout:     commandTimeout,
			InsecureSkipVerify: viper.GetBool("mail.insecure_skip_verify"),
		},
		Send: SendConfig{
			ConnectTimeout: sendConnectTimeout,
			CommandTimeout: sendCommandTimeout,
			RatePerMinute:  ratePerMinute,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，去除空白项
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 先尝试当前目录，再尝试父目录（从子目录运行时）。
// 文件不存在时静默失败，已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
