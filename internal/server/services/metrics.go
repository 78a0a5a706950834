package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	credentialsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lv_credentials_issued_total",
		Help: "Direct-upload credentials requested, by result",
	}, []string{"result"})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lv_transfers_total",
		Help: "Server-mediated transfers by mode and result",
	}, []string{"mode", "result"})

	transferBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lv_transfer_bytes_total",
		Help: "Bytes forwarded to object storage by mode",
	}, []string{"mode"})

	sweeperRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lv_sweeper_runs_total",
		Help: "Orphan sweep runs by result",
	}, []string{"result"})

	sweeperOrphansDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lv_sweeper_orphans_deleted_total",
		Help: "Stored objects deleted because no upload record referenced them",
	})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
