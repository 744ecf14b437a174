package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateVotes(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateReviews(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateVisits(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) simulateVotes(ctx context.Context) {
	log.Printf("Starting vote simulation...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(max(len(s.locations), 1)))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if rand.Float64() >= (s.config.VoteFrequency/3600.0)/2.0 {
					continue
				}

				location := s.pickLocation(zipf)
				if location == nil {
					continue
				}

				previous, voted := user.VotedLocations[location.ID]
				if voted && rand.Float64() >= s.config.FlipPercentage {
					continue
				}

				voteType := "igniter"
				if rand.Float64() < location.ImposterBias {
					voteType = "imposter"
				}
				if voted && voteType == previous {
					// A flip must actually change the vote
					if voteType == "igniter" {
						voteType = "imposter"
					} else {
						voteType = "igniter"
					}
				}

				data := map[string]interface{}{
					"locationId": location.ID.String(),
					"voteType":   voteType,
				}

				if _, err := s.makeRequest("POST", "/vote", user.Token, data); err != nil {
					log.Printf("Failed to cast vote for %s: %v", location.Name, err)
					continue
				}

				user.VotedLocations[location.ID] = voteType
				user.LastActive = time.Now()

				s.stats.mu.Lock()
				s.stats.TotalVotes++
				if voted {
					s.stats.FlippedVotes++
				}
				s.stats.mu.Unlock()
			}
		}
	}
}

func (s *Simulator) simulateReviews(ctx context.Context) {
	log.Printf("Starting review simulation...")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano()+1)),
		s.config.ZipfS, 1, uint64(max(len(s.locations), 1)))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if rand.Float64() >= (s.config.ReviewFrequency/3600.0) {
					continue
				}

				location := s.pickLocation(zipf)
				if location == nil || user.Reviewed[location.ID] {
					continue
				}

				// Trusted locations skew toward high ratings
				rating := rand.Intn(3) + 3
				if location.ImposterBias > 0.5 {
					rating = rand.Intn(3) + 1
				}

				data := map[string]interface{}{
					"locationId": location.ID.String(),
					"rating":     rating,
					"comment":    fmt.Sprintf("Visited %s, giving it %d stars", location.Name, rating),
				}

				if _, err := s.makeRequest("POST", "/reviews", user.Token, data); err != nil {
					log.Printf("Failed to add review for %s: %v", location.Name, err)
					continue
				}

				user.Reviewed[location.ID] = true
				user.LastActive = time.Now()

				s.stats.mu.Lock()
				s.stats.TotalReviews++
				s.stats.mu.Unlock()
			}
		}
	}
}

func (s *Simulator) simulateVisits(ctx context.Context) {
	log.Printf("Starting visit simulation...")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano()+2)),
		s.config.ZipfS, 1, uint64(max(len(s.locations), 1)))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if rand.Float64() >= (s.config.VisitFrequency/3600.0) {
					continue
				}

				location := s.pickLocation(zipf)
				if location == nil {
					continue
				}

				data := map[string]interface{}{
					"locationId": location.ID.String(),
				}

				if _, err := s.makeRequest("POST", "/visit", user.Token, data); err != nil {
					log.Printf("Failed to record visit to %s: %v", location.Name, err)
					continue
				}

				user.LastActive = time.Now()

				s.stats.mu.Lock()
				s.stats.TotalVisits++
				s.stats.mu.Unlock()
			}
		}
	}
}
