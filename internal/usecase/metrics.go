package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onlearn_client_mutations_total",
	Help: "Backend mutations issued by the dispatcher, by collection, operation and result.",
}, []string{"collection", "op", "result"})

var chatExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onlearn_client_chat_exchanges_total",
	Help: "Chat sends by final exchange state.",
}, []string{"state"})
