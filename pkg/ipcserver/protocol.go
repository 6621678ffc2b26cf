// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import "encoding/json"

// Command identifies a request's operation. The full taxonomy from
// spec.md §4.7.
type Command string

const (
	CmdPing               Command = "ping"
	CmdVersion            Command = "version"
	CmdListHardware       Command = "list_hardware"
	CmdListAll            Command = "list_all"
	CmdReadTemperature    Command = "read_temperature"
	CmdReadFanRPM         Command = "read_fan_rpm"
	CmdReadPWM            Command = "read_pwm"
	CmdSetPWM             Command = "set_pwm"
	CmdEnableManualPWM    Command = "enable_manual_pwm"
	CmdDisableManualPWM   Command = "disable_manual_pwm"
	CmdSetPWMOverride     Command = "set_pwm_override"
	CmdClearPWMOverride   Command = "clear_pwm_override"
	CmdListGPUs           Command = "list_gpus"
	CmdSetGPUFan          Command = "set_gpu_fan"
	CmdResetGPUFanAuto    Command = "reset_gpu_fan_auto"
	CmdDetectFanMappings  Command = "detect_fan_mappings"
	CmdReloadConfig       Command = "reload_config"
	CmdListPairings       Command = "list_pairings"
	CmdCreatePairing      Command = "create_pairing"
	CmdDeletePairing      Command = "delete_pairing"
	CmdListECChips        Command = "list_ec_chips"
	CmdReadECRegister     Command = "read_ec_register"
	CmdWriteECRegister    Command = "write_ec_register"
	CmdReadECRange        Command = "read_ec_range"
	CmdGetGlobalMode      Command = "get_global_mode"
	CmdSetGlobalMode      Command = "set_global_mode"
	CmdGetRateLimit       Command = "get_rate_limit"
	CmdSetRateLimit       Command = "set_rate_limit"
)

// Request is one line-delimited JSON envelope received from a client.
// Params is left raw so each handler decodes only the fields its command
// needs, and an unrecognized command can still be rejected cleanly.
type Request struct {
	ID      uint64          `json:"id"`
	Command Command         `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Status is a Response's outcome discriminator.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Response is one line-delimited JSON envelope sent back to a client. The
// server mirrors the request's ID on every response (spec.md §4.7).
type Response struct {
	ID     uint64 `json:"id"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

func okResponse(id uint64, result any) Response {
	return Response{ID: id, Status: StatusOK, Result: result}
}

func errResponse(id uint64, err error) Response {
	return Response{ID: id, Status: StatusError, Error: err.Error()}
}
