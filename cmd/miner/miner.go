package main

import (
	"context"
	"flag"
	"git.gammaspectra.live/P2Pool/stratum-miner/miner"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/pow"
	"git.gammaspectra.live/P2Pool/stratum-miner/monero/randomx"
	"git.gammaspectra.live/P2Pool/stratum-miner/stratum"
	"git.gammaspectra.live/P2Pool/stratum-miner/utils"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	poolHost := flag.String("host", "xmr.2miners.com", "Pool host")
	poolPort := flag.Uint("port", 2222, "Pool port")
	walletAddress := flag.String("user", "", "Wallet address or pool login")
	poolPass := flag.String("pass", "x", "Pool password")
	agent := flag.String("agent", stratum.DefaultAgent, "Agent sent on login")
	nicehash := flag.Bool("nicehash", false, "NiceHash mode, only the lower 3 bytes of the nonce are used")
	keepAlive := flag.Duration("keepalive", 0, "Interval of keepalived requests, 0 disables them")
	reportInterval := flag.Duration("report", time.Minute, "Interval of hashrate reports, 0 disables them")
	randomXStates := flag.Int("rx-states", randomx.DefaultCachedStates, "Number of light RandomX seed states kept initialized, full memory builds keep one dataset")
	apiBind := flag.String("api-bind", "", "Bind to this address to serve miner status")
	logLevel := flag.String("log-level", "error,info", "Comma separated log levels: error, info, notice, debug")
	debugLog := flag.Bool("debug", false, "Log more details")
	flag.Parse()

	utils.GlobalLogLevel = utils.ParseLogLevel(*logLevel)
	if *debugLog {
		log.SetFlags(log.Flags() | log.Lshortfile)
		utils.GlobalLogLevel |= utils.LogLevelNotice | utils.LogLevelDebug
	}

	if *walletAddress == "" {
		log.Fatal("-user is required")
	}
	if *poolPort == 0 || *poolPort > 65535 {
		log.Fatalf("invalid port %d", *poolPort)
	}

	stratumConfig := stratum.Config{
		Host:      *poolHost,
		Port:      uint16(*poolPort),
		Login:     *walletAddress,
		Password:  *poolPass,
		Agent:     *agent,
		KeepAlive: *keepAlive,
	}

	minerConfig := miner.Config{
		Mode:           miner.NonceModeStandard,
		SubmitWait:     miner.DefaultSubmitWait,
		ReportInterval: *reportInterval,
	}
	if *nicehash {
		minerConfig.Mode = miner.NonceModeRestricted
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := stratum.Dial(ctx, stratumConfig)
	if err != nil {
		log.Fatalf("Could not connect to pool: %s", err)
	}

	hasher := pow.NewDefaultHasher(randomx.NewRandomX(*randomXStates))
	defer hasher.Close()

	jobs := miner.NewJobChannel()
	m := miner.NewMiner(minerConfig, jobs, hasher, client)

	utils.Logf("Using NiceHash mode: %t", *nicehash)

	if *apiBind != "" {
		server := &http.Server{
			Addr:        *apiBind,
			ReadTimeout: time.Second * 2,
			Handler:     getServerMux(stratumConfig, client, m),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Panic(err)
			}
		}()
		defer server.Close()
	}

	go func() {
		if err := m.Run(ctx); err != nil && ctx.Err() == nil {
			utils.Errorf("[Miner] Stopped: %s", err)
		}
	}()

	if err = client.Run(ctx, jobs); err != nil {
		if ctx.Err() != nil {
			utils.Logf("Exiting")
			return
		}
		log.Fatalf("Pool connection failed: %s", err)
	}
}
