package main

import (
	"context"
	"log"

	"github.com/northmart/go-order-processing/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("api exited: %v", err)
	}
}
