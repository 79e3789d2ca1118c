package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo 集合服務端口 from .env
type EnvInfo struct {
	// service name
	ChatService     string
	CalendarService string
	DocumentService string

	// service yaml path
	ChatServiceYAMLPath     string
	CalendarServiceYAMLPath string
	DocumentServiceYAMLPath string

	// service log path
	ChatServiceLogPath     string
	CalendarServiceLogPath string
	DocumentServiceLogPath string

	// JWTSecret 由外部 auth 服務簽發 token 時使用的共用密鑰
	JWTSecret string
}

// EnvConfig 集合服務端口
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {
		loadDotEnv()

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			ChatService:     getEnv("CHAT_SERVICE", "chat_service"),
			CalendarService: getEnv("CALENDAR_SERVICE", "calendar_service"),
			DocumentService: getEnv("DOCUMENT_SERVICE", "document_service"),

			ChatServiceYAMLPath:     getEnv("CHAT_SERVICE_YAML", "./config"),
			CalendarServiceYAMLPath: getEnv("CALENDAR_SERVICE_YAML", "./config"),
			DocumentServiceYAMLPath: getEnv("DOCUMENT_SERVICE_YAML", "./config"),

			ChatServiceLogPath:     getEnv("CHAT_SERVICE_LOG", "./log/chat"),
			CalendarServiceLogPath: getEnv("CALENDAR_SERVICE_LOG", "./log/calendar"),
			DocumentServiceLogPath: getEnv("DOCUMENT_SERVICE_LOG", "./log/document"),

			JWTSecret: os.Getenv("JWT_SECRET"),
		}
		log.Printf("Service: chat[%s] calendar[%s] document[%s]", envConfig.ChatService, envConfig.CalendarService, envConfig.DocumentService)
	})

	return envConfig
}

func loadDotEnv() {
	path, err := GetPath(".env", 5)
	if err != nil {
		log.Printf("Warning: Could not get .env path: %v", err)
		return
	}

	if err := godotenv.Load(path); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// IsProduction check run env
func IsProduction() bool {
	var b bool
	if env == "production" {
		b = true
	}
	return b
}

// IsLocal check run env
func IsLocal() bool {
	var b bool
	if env == "local" {
		b = true
	}
	return b
}

// LoadConfig 加載配置
func LoadConfig[T any](serviceName string, configPath string) T {
	v := viper.New()
	// 設置配置文件基本信息
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 自動讀取環境變數
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 讀取配置文件
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error loading config file: %v", err)
	}

	// 獲取配置文件的內容
	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		log.Fatalf("Error reading raw config file: %v", err)
	}

	// 替換 ${} 占位符為環境變數的值
	expandedConfig := os.ExpandEnv(string(rawConfig))

	// 使用 Viper 再次解析替換後的配置
	if err := v.ReadConfig(bytes.NewBuffer([]byte(expandedConfig))); err != nil {
		log.Fatalf("Error reading expanded config: %v", err)
	}

	// 解構到 Config 結構
	var cfg T
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Error unmarshaling config: %v", err)
	}
	return cfg
}

// GetRedisSetting get redis setting from .env
// 回傳 sentinel master 名稱與 sentinel 位址；若未設定 sentinel 則回傳 REDIS_ADDR 單機位址
func GetRedisSetting() (masterName string, sentinelAddrs []string, addr string) {
	loadDotEnv()

	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]

		// 匹配 REDIS_SENTINEL*_IP
		if strings.HasPrefix(key, "REDIS_SENTINEL") && strings.HasSuffix(key, "_IP") {
			portKey := strings.Replace(key, "_IP", "_PORT", 1)
			if port := os.Getenv(portKey); port != "" {
				sentinelAddrs = append(sentinelAddrs, fmt.Sprintf("%s:%s", value, port))
			}
		}
	}
	sort.Strings(sentinelAddrs)

	masterName = getEnv("REDIS_MASTER_NAME", "mymaster")
	addr = getEnv("REDIS_ADDR", "localhost:6379")
	return masterName, sentinelAddrs, addr
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + "can't find path ")
}
