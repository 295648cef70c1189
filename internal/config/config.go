package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	Mongo      Mongo      `yaml:"mongo" env-required:"true"`
	MinIO      MinIO      `yaml:"minio" env-required:"true"`
	Media      Media      `yaml:"media"`
	Redis      Redis      `yaml:"redis"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-default:"localhost:8080"`
}

type Mongo struct {
	URI    string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	DBName string `yaml:"dbname" env-default:"devaalay"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_KEY"`
	BucketName      string `yaml:"bucket_name" env-default:"devaalay-assets"`
	UseSSL          bool   `yaml:"use_ssl" env-default:"false"`
}

type Media struct {
	// MaxFileSize caps a single multipart file part, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" env-default:"104857600"`
	// MaxFileParts caps the number of file parts in one request.
	MaxFileParts int `yaml:"max_file_parts" env-default:"2"`
	// PresignedURLTTL is the read-URL lifetime in seconds.
	PresignedURLTTL int      `yaml:"presigned_url_ttl" env-default:"3600"`
	ImageExtensions []string `yaml:"image_extensions" env-default:".jpg,.jpeg,.png,.gif,.webp"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
