package detection

import (
	"time"

	"github.com/khaledhikmat/vs-defect/model"
)

func (svc *service) countRequest(endpoint string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.stats.Requests[endpoint]++
}

func (svc *service) countError(err *model.DetectError) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.stats.Errors[err.Kind]++
}

func (svc *service) countImage(elapsed time.Duration, defect bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.stats.Images++
	if defect {
		svc.stats.Defects++
	}
	svc.totalProcTime += elapsed
}

// Stats returns a snapshot; the maps are copies.
func (svc *service) Stats() model.DetectorStats {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stats := svc.stats
	stats.Requests = make(map[string]int, len(svc.stats.Requests))
	for k, v := range svc.stats.Requests {
		stats.Requests[k] = v
	}
	stats.Errors = make(map[model.ErrorKind]int, len(svc.stats.Errors))
	for k, v := range svc.stats.Errors {
		stats.Errors[k] = v
	}

	if stats.Images > 0 {
		stats.AvgProcTime = svc.totalProcTime.Seconds() / float64(stats.Images)
	}
	stats.Uptime = int64(time.Since(svc.startTime).Seconds())
	stats.Timestamp = time.Now().Unix()
	return stats
}
