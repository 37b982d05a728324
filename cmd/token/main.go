// Command token mints a service bearer token for the protected purchase
// endpoints, signed with the configured secret. Hand the output to the
// payment processor or to curl:
//
//	curl -H "Authorization: Bearer $(go run ./cmd/token)" ...
package main

import (
	"flag"
	"fmt"
	"log"

	"lmx_presale/pkg/auth"

	"github.com/spf13/viper"
)

func main() {
	subject := flag.String("subject", "payment-processor", "token subject, identifies the calling service")
	flag.Parse()

	viper.SetConfigName("config")
	viper.AddConfigPath("./")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var cfg struct {
		Auth struct {
			ServiceTokenSecret string `yaml:"serviceTokenSecret"`
		} `yaml:"auth"`
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Failed to unmarshal config: %v", err)
	}
	if cfg.Auth.ServiceTokenSecret == "" {
		log.Fatal("auth.serviceTokenSecret is not configured")
	}

	token, err := auth.NewServiceAuth(cfg.Auth.ServiceTokenSecret).GenerateToken(*subject)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
}
