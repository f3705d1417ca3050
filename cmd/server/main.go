package main

import (
	"log"

	approuters "github.com/KailasMahavarkar/syncboard/internal/app_routers"
	"github.com/KailasMahavarkar/syncboard/internal/configuration"
)

func main() {
	container, err := configuration.BuildContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
