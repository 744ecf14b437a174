package main

import (
	"context"
	"log"
	"time"

	"green-map/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:        50,
		NumLocations:    10,
		SimulationTime:  10 * time.Minute,
		VoteFrequency:   120.0,
		ReviewFrequency: 30.0,
		VisitFrequency:  60.0,
		FlipPercentage:  0.05,
		ImposterRate:    0.15,
		ZipfS:           1.07,
		ServerURL:       "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Server URL: %s", config.ServerURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Number of locations: %d", config.NumLocations)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Vote frequency: %.2f votes/user/hour", config.VoteFrequency)
	log.Printf("- Review frequency: %.2f reviews/user/hour", config.ReviewFrequency)
	log.Printf("- Flip percentage: %.1f%%", config.FlipPercentage*100)
	log.Printf("- Baseline imposter rate: %.2f", config.ImposterRate)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Total locations: %d", metrics.TotalLocations)
	log.Printf("- Total votes: %d (flips: %d)", metrics.TotalVotes, metrics.FlippedVotes)
	log.Printf("- Total reviews: %d", metrics.TotalReviews)
	log.Printf("- Total visits: %d", metrics.TotalVisits)
	log.Printf("- Error count: %d", metrics.ErrorCount)
}
