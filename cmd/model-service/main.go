package main

import (
	"log"

	"github.com/yoloverlay/model-service/core/infra/buildinfo"
	"github.com/yoloverlay/model-service/core/infra/config"
	"github.com/yoloverlay/model-service/core/service"
)

func main() {
	log.Println("model service starting...")
	buildinfo.Log("model-service")
	cfg := config.Load()
	if err := service.Run(cfg); err != nil {
		log.Fatalf("model service error: %v", err)
	}
}
