package stratum

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/utils"
	gojson "github.com/goccy/go-json"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var ErrConnection = errors.New("connection error")

const DefaultAgent = "stratum-miner-go/0.1"

// maxLineSize Upper bound of a single inbound message, jobs are a few hundred bytes
const maxLineSize = 64 * 1024

type Config struct {
	Host     string
	Port     uint16
	Login    string
	Password string
	Agent    string
	// KeepAlive Interval for keepalived requests, 0 disables them
	KeepAlive time.Duration
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
}

// JobPublisher Receives every job sent by the pool, in arrival order
type JobPublisher interface {
	Publish(job *Job)
}

// Client Session with a single pool. Connection failures are not retried.
type Client struct {
	config Config

	conn      net.Conn
	writeLock sync.Mutex
	encoder   *gojson.Encoder

	lock      sync.RWMutex
	sessionId string

	// pending Submits without a response yet. Responses carry no usable id, they are matched in order.
	pending  atomic.Int64
	accepted atomic.Uint64
	rejected atomic.Uint64
}

func Dial(ctx context.Context, config Config) (*Client, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", config.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return NewClient(config, conn), nil
}

// NewClient Uses an already established connection
func NewClient(config Config, conn net.Conn) *Client {
	if config.Agent == "" {
		config.Agent = DefaultAgent
	}
	c := &Client{
		config: config,
		conn:   conn,
	}
	c.encoder = utils.NewJSONEncoder(c)
	return c
}

func (c *Client) Write(b []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(time.Second * 5)); err != nil {
		return 0, err
	}
	return c.conn.Write(b)
}

func (c *Client) send(req JsonRpcRequest) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if err := c.encoder.EncodeWithOption(req, utils.JsonEncodeOptions...); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

func (c *Client) SessionId() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.sessionId
}

func (c *Client) setSessionId(id string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sessionId = id
}

// Accepted Number of submit responses with status OK
func (c *Client) Accepted() uint64 {
	return c.accepted.Load()
}

// Rejected Number of submit responses with an error
func (c *Client) Rejected() uint64 {
	return c.rejected.Load()
}

// takePending Consumes one outstanding submit, false when none is waiting for a response
func (c *Client) takePending() bool {
	for {
		n := c.pending.Load()
		if n <= 0 {
			return false
		}
		if c.pending.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Submit Sends a share to the pool. The response arrives asynchronously on the read loop.
func (c *Client) Submit(s *Submission) error {
	utils.Logf("[Stratum] Submitting hash: %s", s.Result)
	c.pending.Add(1)
	if err := c.send(newSubmitRequest(s)); err != nil {
		c.takePending()
		return err
	}
	return nil
}

// Run Logs in and reads messages until the connection fails or ctx is cancelled. The connection is closed on return.
func (c *Client) Run(ctx context.Context, jobs JobPublisher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	utils.Logf("[Stratum] Logging into pool: %s", c.config.Address())
	if err := c.send(newLoginRequest(c.config.Login, c.config.Password, c.config.Agent)); err != nil {
		return err
	}

	if c.config.KeepAlive > 0 {
		go func() {
			for range utils.ContextTick(ctx, c.config.KeepAlive) {
				if sessionId := c.SessionId(); sessionId != "" {
					if err := c.send(newKeepAliveRequest(sessionId)); err != nil {
						utils.Errorf("[Stratum] Could not send keepalive: %s", err)
					}
				}
			}
		}()
	}

	reader := bufio.NewReaderSize(c.conn, maxLineSize)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if err = c.handleLine(line, jobs); err != nil {
			utils.Errorf("[Stratum] Ignoring message: %s", err)
		}
	}
}

func (c *Client) handleLine(line []byte, jobs JobPublisher) error {
	var msg JsonRpcMessage
	if err := utils.UnmarshalJSON(line, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocolParse, err)
	}

	if msg.Error != nil {
		if c.takePending() {
			c.rejected.Add(1)
		}
		utils.Errorf("[Stratum] Error: %s", poolErrorFrom(msg.Error))
		return nil
	}

	if msg.Result != nil && msg.Result.Status != "" {
		utils.Logf("[Stratum] Status: %s", msg.Result.Status)
		if msg.Result.Job == nil && msg.Result.Status == "OK" && c.takePending() {
			c.accepted.Add(1)
		}
	}

	if msg.Result != nil && msg.Result.Job != nil {
		c.setSessionId(msg.Result.Id)
		utils.Logf("[Stratum] Login ID: %s", msg.Result.Id)
		return c.publish(msg.Result.Job, jobs)
	} else if msg.Method == "job" {
		if c.SessionId() == "" {
			return fmt.Errorf("%w: job notification before login", ErrProtocolParse)
		}
		return c.publish(msg.Params, jobs)
	}

	return nil
}

func (c *Client) publish(params *JsonRpcJobParams, jobs JobPublisher) error {
	job, err := JobFromParams(params, c.SessionId())
	if err != nil {
		return err
	}
	utils.Debugf("[Stratum] Received %s", job)
	jobs.Publish(job)
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
