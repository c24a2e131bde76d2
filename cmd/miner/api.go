package main

import (
	"git.gammaspectra.live/P2Pool/stratum-miner/miner"
	"git.gammaspectra.live/P2Pool/stratum-miner/stratum"
	"git.gammaspectra.live/P2Pool/stratum-miner/types"
	"git.gammaspectra.live/P2Pool/stratum-miner/utils"
	"github.com/gorilla/mux"
	"net/http"
	"time"
)

type summaryJobResult struct {
	JobId      string           `json:"job_id"`
	Height     uint64           `json:"height"`
	Algorithm  string           `json:"algo"`
	Difficulty types.Difficulty `json:"difficulty"`
}

type summaryResult struct {
	Pool      string            `json:"pool"`
	Agent     string            `json:"agent"`
	NonceMode string            `json:"nonce_mode"`
	Uptime    uint64            `json:"uptime"`
	Hashrate  float64           `json:"hashrate"`
	Hashes    uint64            `json:"hashes"`
	Found     uint64            `json:"shares_found"`
	Accepted  uint64            `json:"shares_accepted"`
	Rejected  uint64            `json:"shares_rejected"`
	Job       *summaryJobResult `json:"job,omitempty"`
}

func encodeJson(r *http.Request, d any) ([]byte, error) {
	if r.URL.Query().Has("pretty") {
		return utils.MarshalJSONIndent(d, "    ")
	} else {
		return utils.MarshalJSON(d)
	}
}

func getServerMux(config stratum.Config, client *stratum.Client, m *miner.Miner) *mux.Router {
	serveMux := mux.NewRouter()

	serveMux.HandleFunc("/api/summary", func(writer http.ResponseWriter, request *http.Request) {
		now := time.Now()
		result := summaryResult{
			Pool:      config.Address(),
			Agent:     config.Agent,
			NonceMode: m.Mode().String(),
			Uptime:    uint64(now.Sub(m.Hashrate().Started()).Seconds()),
			Hashrate:  m.Hashrate().Rate(now),
			Hashes:    m.Hashrate().Total(),
			Found:     m.Found(),
			Accepted:  client.Accepted(),
			Rejected:  client.Rejected(),
		}
		if job := m.CurrentJob(); job != nil {
			result.Job = &summaryJobResult{
				JobId:      job.JobId,
				Height:     job.Height,
				Algorithm:  job.Variant.String(),
				Difficulty: job.Difficulty(),
			}
		}

		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusOK)
		buf, _ := encodeJson(request, result)
		_, _ = writer.Write(buf)
	}).Methods("GET", "HEAD")

	return serveMux
}
