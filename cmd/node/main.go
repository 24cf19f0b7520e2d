package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/citizenwallet/dao/internal/collectible"
	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/internal/config"
	"github.com/citizenwallet/dao/internal/governor"
	"github.com/citizenwallet/dao/internal/services/db"
	"github.com/citizenwallet/dao/internal/services/ethrequest"
	"github.com/citizenwallet/dao/internal/services/webhook"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/citizenwallet/dao/pkg/metrics"
	"github.com/citizenwallet/dao/pkg/queue"
	"github.com/citizenwallet/dao/pkg/router"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	log.Default().Println("launching dao node...")

	env := flag.String("env", ".env", "path to .env file")

	port := flag.Int("port", 3000, "port to listen on")

	deployment := flag.String("deployment", "dao.yaml", "path to the deployment file")

	bufsize := flag.Int("buffer", 100, "notification queue buffer size (default: 100)")

	notify := flag.Bool("notify", true, "enable notifications")

	clockttl := flag.Duration("clockttl", 2*time.Second, "how long a block timestamp is reused when telling time from the chain")

	dbpath := flag.String("dbpath", ".", "path to db")

	flag.Parse()

	ctx := context.Background()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal(err)
	}

	if conf.SentryURL != "" && conf.SentryURL != "x" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              conf.SentryURL,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		// Flush buffered events before the program terminates.
		defer sentry.Flush(2 * time.Second)
	}

	daoAddr, err := com.ParseAddress(conf.DAOAddress)
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Println("loading deployment from: ", *deployment)

	dep, err := config.LoadDeployment(*deployment)
	if err != nil {
		log.Fatal(err)
	}

	params, err := dep.DAOParams()
	if err != nil {
		log.Fatal(err)
	}

	contracts, err := dep.CollectibleContracts()
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Println("starting internal db service...")

	var d *db.DB
	if conf.UsePostgres() {
		d, err = db.NewPostgresDB(daoAddr, conf.DBUser, conf.DBPassword, conf.DBName, conf.DBHost, conf.DBReaderHost)
	} else {
		d, err = db.NewDB(daoAddr, *dbpath)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	var clock dao.Clock = dao.SystemClock{}
	if conf.RPCURL != "" {
		log.Default().Println("telling time from rpc: ", conf.RPCURL)

		evm, err := ethrequest.NewEthService(ctx, conf.RPCURL)
		if err != nil {
			log.Fatal(err)
		}
		defer evm.Close()

		chid, err := evm.ChainID(ctx)
		if err != nil {
			log.Fatal(err)
		}

		head, err := evm.LatestBlock(ctx)
		if err != nil {
			log.Fatal(err)
		}

		log.Default().Printf("dao running on chain %s at block %s\n", chid.String(), head.String())

		clock, err = ethrequest.NewChainClock(ctx, evm, *clockttl)
		if err != nil {
			log.Fatal(err)
		}
	}

	quitAck := make(chan error)

	w := webhook.NewMessager(conf.DiscordURL, conf.DAOName, *notify)

	nq := queue.NewService(3, *bufsize, ctx, w)

	go func() {
		quitAck <- nq.Start(w)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(registry)

	g, err := governor.New(daoAddr, params, clock, governor.WithRecorder(d), governor.WithNotifier(dao.Notifiers{m, nq}))
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Println("restoring dao state...")

	snap, err := d.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	err = g.Restore(snap)
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Printf("dao %s restored with %d members and %d proposals\n", daoAddr.Hex(), len(snap.Members), len(snap.Proposals))

	for _, c := range contracts {
		nft, err := collectible.New(c.Price)
		if err != nil {
			log.Fatal(err)
		}

		g.Deploy(c.Address, nft)

		log.Default().Println("collectible deployed at: ", c.Address.Hex())
	}

	log.Default().Println("starting api service...")

	api := router.NewServer(conf.APIKEY, g, m, registry)

	go func() {
		quitAck <- api.Start(*port)
	}()

	log.Default().Println("listening on port: ", *port)

	for err := range quitAck {
		if err != nil {
			w.NotifyError(ctx, err)
			sentry.CaptureException(err)
			log.Fatal(err)
		}
	}
}
