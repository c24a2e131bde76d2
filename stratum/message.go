package stratum

import (
	"fmt"
	"git.gammaspectra.live/P2Pool/stratum-miner/utils"
)

// JsonRpcRequest Outbound request. Pools answer on the same line ordering, so the id is always 1.
type JsonRpcRequest struct {
	Id     any    `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type jsonRpcLoginParams struct {
	Login string `json:"login"`
	Pass  string `json:"pass"`
	RigId string `json:"rigid"`
	Agent string `json:"agent"`
}

type jsonRpcSubmitParams struct {
	// Id session id returned on login
	Id    string `json:"id"`
	JobId string `json:"job_id"`
	// Nonce little endian, in hex
	Nonce string `json:"nonce"`
	// Result digest, in hex
	Result string `json:"result"`
}

type jsonRpcKeepAliveParams struct {
	Id string `json:"id"`
}

// JsonRpcMessage Any inbound line: login response, submit/keepalive response, job notification or error
type JsonRpcMessage struct {
	Id             any               `json:"id,omitempty"`
	JsonRpcVersion string            `json:"jsonrpc,omitempty"`
	Method         string            `json:"method,omitempty"`
	Params         *JsonRpcJobParams `json:"params,omitempty"`
	Result         *JsonRpcResult    `json:"result,omitempty"`
	Error          any               `json:"error,omitempty"`
}

type JsonRpcResult struct {
	// Id session id, present on login
	Id     string            `json:"id,omitempty"`
	Job    *JsonRpcJobParams `json:"job,omitempty"`
	Status string            `json:"status,omitempty"`
}

type JsonRpcJobParams struct {
	// Blob HashingBlob, in hex
	Blob string `json:"blob"`

	JobId string `json:"job_id"`

	// Target 4 or 8 byte little endian target, in hex
	Target string `json:"target"`

	Algo string `json:"algo,omitempty"`

	// Height main height
	Height uint64 `json:"height"`

	// SeedHash RandomX key, in hex. Empty for CryptoNight jobs
	SeedHash string `json:"seed_hash,omitempty"`
}

// PoolError Error object sent by the pool, usually {"code":-1,"message":"..."}
type PoolError struct {
	Code    int
	Message string
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("pool error %d: %s", e.Code, e.Message)
}

func poolErrorFrom(v any) *PoolError {
	switch e := v.(type) {
	case map[string]any:
		pe := &PoolError{}
		if code, ok := e["code"].(float64); ok {
			pe.Code = int(code)
		}
		if message, ok := e["message"].(string); ok {
			pe.Message = message
		} else if buf, err := utils.MarshalJSON(e); err == nil {
			pe.Message = string(buf)
		}
		return pe
	case string:
		return &PoolError{Message: e}
	default:
		return &PoolError{Message: fmt.Sprintf("%v", v)}
	}
}

func newLoginRequest(login, pass, agent string) JsonRpcRequest {
	return JsonRpcRequest{
		Id:     1,
		Method: "login",
		Params: jsonRpcLoginParams{
			Login: login,
			Pass:  pass,
			RigId: "",
			Agent: agent,
		},
	}
}

func newSubmitRequest(s *Submission) JsonRpcRequest {
	return JsonRpcRequest{
		Id:     1,
		Method: "submit",
		Params: jsonRpcSubmitParams{
			Id:     s.SessionId,
			JobId:  s.JobId,
			Nonce:  EncodeNonce(s.Nonce),
			Result: s.Result.String(),
		},
	}
}

func newKeepAliveRequest(sessionId string) JsonRpcRequest {
	return JsonRpcRequest{
		Id:     1,
		Method: "keepalived",
		Params: jsonRpcKeepAliveParams{
			Id: sessionId,
		},
	}
}
