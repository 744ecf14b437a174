package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	NumUsers        int
	NumLocations    int
	SimulationTime  time.Duration
	VoteFrequency   float64 // votes/user/hour
	ReviewFrequency float64 // reviews/user/hour
	VisitFrequency  float64 // visits/user/hour
	FlipPercentage  float64 // fraction of votes that change an existing vote
	ImposterRate    float64 // baseline fraction of voters who distrust a location
	ZipfS           float64
	ServerURL       string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	TotalVotes       int
	FlippedVotes     int
	TotalReviews     int
	TotalVisits      int
	RequestLatencies []time.Duration
}

// SimulatedUser tracks one synthetic account and the state it has built up.
type SimulatedUser struct {
	ID             uuid.UUID
	Username       string
	Email          string
	Token          string
	LastActive     time.Time
	VotedLocations map[uuid.UUID]string // location -> last vote type cast
	Reviewed       map[uuid.UUID]bool
}

// SimulatedLocation pairs a created location with its scripted legitimacy:
// suspicious locations attract a much higher imposter share, so the final
// trust scores should spread across the range.
type SimulatedLocation struct {
	ID           uuid.UUID
	Name         string
	ImposterBias float64
}

type Simulator struct {
	config    SimConfig
	stats     *SimulationStats
	users     []*SimulatedUser
	locations []*SimulatedLocation
	client    *http.Client
	mu        sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Starting initialization...")

	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create initial users: %v", err)
	}

	log.Printf("Phase 2: Creating %d locations...", s.config.NumLocations)
	if err := s.createLocations(ctx); err != nil {
		return fmt.Errorf("failed to create locations: %v", err)
	}

	log.Printf("Initialization completed successfully")
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	s.mu.Lock()
	defer s.mu.Unlock()

	numWorkers := 5
	userJobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	var wg sync.WaitGroup

	// Shared rate limiter so registration doesn't overwhelm the server
	rateLimiter := time.NewTicker(100 * time.Millisecond)
	defer rateLimiter.Stop()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for userNum := range userJobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					Username:       fmt.Sprintf("user_%d", userNum),
					Email:          fmt.Sprintf("user_%d@test.com", userNum),
					VotedLocations: make(map[uuid.UUID]string),
					Reviewed:       make(map[uuid.UUID]bool),
				}

				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerAndLogin(ctx, user, client); err == nil {
						results <- user
						break
					}
					backoffDuration := time.Duration(math.Pow(2, float64(retries))) * time.Second
					log.Printf("Worker %d: Retry %d for user %s after %v delay",
						workerID, retries+1, user.Username, backoffDuration)
					time.Sleep(backoffDuration)
				}

				if err != nil {
					log.Printf("Worker %d: Failed to register user %s after retries: %v",
						workerID, user.Username, err)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			userJobs <- i
		}
		close(userJobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for user := range results {
		s.users = append(s.users, user)
	}

	log.Printf("Successfully created %d users", len(s.users))
	return nil
}

func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser, client *http.Client) error {
	data := map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"password": "testpass123",
	}

	resp, err := s.makeRequestWithClient(client, "POST", "/user/register", "", data)
	if err != nil {
		return fmt.Errorf("failed to register user: %v", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse registration response: %v", err)
	}

	registeredID, err := uuid.Parse(result.ID)
	if err != nil {
		return fmt.Errorf("invalid user ID returned: %v", err)
	}
	user.ID = registeredID

	loginData := map[string]interface{}{
		"email":    user.Email,
		"password": "testpass123",
	}

	loginResp, err := s.makeRequestWithClient(client, "POST", "/user/login", "", loginData)
	if err != nil {
		return fmt.Errorf("failed to login user: %v", err)
	}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(loginResp, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %v", err)
	}
	if !login.Success || login.Token == "" {
		return fmt.Errorf("login rejected for user %s", user.Username)
	}

	user.Token = login.Token
	return nil
}

func (s *Simulator) createLocations(ctx context.Context) error {
	// Top 10% of users act as location submitters
	numCreators := len(s.users) / 10
	if numCreators == 0 {
		numCreators = 1
	}
	creators := make([]*SimulatedUser, numCreators)
	copy(creators, s.users[:numCreators])

	rand.Shuffle(len(creators), func(i, j int) {
		creators[i], creators[j] = creators[j], creators[i]
	})

	s.locations = make([]*SimulatedLocation, 0, s.config.NumLocations)

	for i := 0; i < s.config.NumLocations; i++ {
		creator := creators[i%len(creators)]
		name := fmt.Sprintf("%s_%d", getRandomShopName(), i)

		// Roughly one in five locations is scripted as a likely imposter
		bias := s.config.ImposterRate
		if rand.Float64() < 0.2 {
			bias = 0.7 + rand.Float64()*0.25
		}

		data := map[string]interface{}{
			"name":        name,
			"description": fmt.Sprintf("Community submitted spot: %s", name),
			"address":     fmt.Sprintf("%d Main Street", rand.Intn(999)+1),
			"latitude":    -90 + rand.Float64()*180,
			"longitude":   -180 + rand.Float64()*360,
		}

		log.Printf("Creating location '%s' with creator %s...", name, creator.Username)
		resp, err := s.makeRequest("POST", "/locations", creator.Token, data)
		if err != nil {
			log.Printf("Failed to create location %s: %v", name, err)
			continue
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &result); err != nil {
			log.Printf("Failed to parse location response: %v", err)
			continue
		}
		locationID, err := uuid.Parse(result.ID)
		if err != nil {
			log.Printf("Invalid location ID returned: %v", err)
			continue
		}

		s.locations = append(s.locations, &SimulatedLocation{
			ID:           locationID,
			Name:         name,
			ImposterBias: bias,
		})

		time.Sleep(100 * time.Millisecond)
	}

	return nil
}

// Helper function to generate random dispensary names
func getRandomShopName() string {
	names := []string{
		"green_leaf", "herbal_haven", "high_society", "the_grow_room",
		"emerald_city", "cloud_nine", "mellow_meadows", "budding_branch",
		"canna_corner", "the_green_door", "leaf_and_light", "sticky_fingers",
	}
	return names[rand.Intn(len(names))]
}

// pickLocation selects a location with Zipf-skewed popularity so a handful
// of locations collect most of the traffic.
func (s *Simulator) pickLocation(zipf *rand.Zipf) *SimulatedLocation {
	if len(s.locations) == 0 {
		return nil
	}
	idx := int(zipf.Uint64()) % len(s.locations)
	return s.locations[idx]
}

// Helper method to make HTTP requests
func (s *Simulator) makeRequest(method, endpoint, token string, data interface{}) ([]byte, error) {
	return s.makeRequestWithClient(s.client, method, endpoint, token, data)
}

func (s *Simulator) makeRequestWithClient(client *http.Client, method, endpoint, token string, data interface{}) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.ServerURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	log.Printf("Starting metrics collection...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Total Votes: %d (Flips: %d)", s.stats.TotalVotes, s.stats.FlippedVotes)
			log.Printf("- Total Reviews: %d", s.stats.TotalReviews)
			log.Printf("- Total Visits: %d", s.stats.TotalVisits)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	TotalLocations    int
	TotalVotes        int
	FlippedVotes      int
	TotalReviews      int
	TotalVisits       int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		TotalLocations:    len(s.locations),
		TotalVotes:        s.stats.TotalVotes,
		FlippedVotes:      s.stats.FlippedVotes,
		TotalReviews:      s.stats.TotalReviews,
		TotalVisits:       s.stats.TotalVisits,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
