// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/model"
	"github.com/hyperfan/hyperfand/pkg/prober"
)

// handlerFunc implements one Command. It runs on the server's bounded
// worker pool, never on the connection-reading goroutine directly (spec.md
// §4.7 concurrency note).
type handlerFunc func(ctx context.Context, s *Server, params json.RawMessage) (any, error)

var handlers = map[Command]handlerFunc{
	CmdPing:              handlePing,
	CmdVersion:           handleVersion,
	CmdListHardware:      handleListHardware,
	CmdListAll:           handleListAll,
	CmdReadTemperature:   handleReadTemperature,
	CmdReadFanRPM:        handleReadFanRPM,
	CmdReadPWM:           handleReadPWM,
	CmdSetPWM:            handleSetPWM,
	CmdEnableManualPWM:   handleEnableManualPWM,
	CmdDisableManualPWM:  handleDisableManualPWM,
	CmdSetPWMOverride:    handleSetPWMOverride,
	CmdClearPWMOverride:  handleClearPWMOverride,
	CmdListGPUs:          handleListGPUs,
	CmdSetGPUFan:         handleSetGPUFan,
	CmdResetGPUFanAuto:   handleResetGPUFanAuto,
	CmdDetectFanMappings: handleDetectFanMappings,
	CmdReloadConfig:      handleReloadConfig,
	CmdListPairings:      handleListPairings,
	CmdCreatePairing:     handleCreatePairing,
	CmdDeletePairing:     handleDeletePairing,
	CmdListECChips:       handleListECChips,
	CmdReadECRegister:    handleReadECRegister,
	CmdWriteECRegister:   handleWriteECRegister,
	CmdReadECRange:       handleReadECRange,
	CmdGetGlobalMode:     handleGetGlobalMode,
	CmdSetGlobalMode:     handleSetGlobalMode,
	CmdGetRateLimit:      handleGetRateLimit,
	CmdSetRateLimit:      handleSetRateLimit,
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", ErrValidation)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// globalModeManualPercent is the fixed duty cycle applied to every bound
// PWM when GlobalMode is set to manual (SPEC_FULL.md §9 Open Question
// resolution).
const globalModeManualPercent = 30.0

// globalModeOverrideHorizon stands in for "no TTL": the override is
// cleared explicitly by SetGlobalMode(auto) or a daemon restart, never by
// expiry.
const globalModeOverrideHorizon = 100 * 365 * 24 * time.Hour

var gpuVendorPCIID = map[string]uint64{
	"amd":   0x1002,
	"intel": 0x8086,
}

func handlePing(_ context.Context, _ *Server, _ json.RawMessage) (any, error) {
	return "pong", nil
}

func handleVersion(_ context.Context, _ *Server, _ json.RawMessage) (any, error) {
	return map[string]string{"protocol_version": ProtocolVersion}, nil
}

func handleListHardware(ctx context.Context, s *Server, _ json.RawMessage) (any, error) {
	snap, err := s.gatherSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Chips, nil
}

func handleListGPUs(ctx context.Context, s *Server, _ json.RawMessage) (any, error) {
	snap, err := s.gatherSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.GPUs, nil
}

func handleListAll(ctx context.Context, s *Server, _ json.RawMessage) (any, error) {
	return s.gatherSnapshot(ctx)
}

func (s *Server) gatherSnapshot(ctx context.Context) (enumerate.Snapshot, error) {
	if s.platform == nil {
		return enumerate.Snapshot{}, fmt.Errorf("%w: no platform enumerator configured", ErrNotFound)
	}
	return enumerate.Gather(ctx, s.platform, s.gw, s.logger)
}

type pathParams struct {
	Path string `json:"path"`
}

func handleReadTemperature(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	millideg, err := s.gw.ReadTempMillideg(ctx, valid)
	if err != nil {
		return nil, err
	}
	return model.TemperatureValue{Celsius: float64(millideg) / 1000.0}, nil
}

func handleReadFanRPM(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	rpm, err := s.gw.ReadFanRPM(ctx, valid)
	if err != nil {
		return nil, err
	}
	return model.FanValue{RPM: int(rpm)}, nil
}

func handleReadPWM(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	v, err := s.gw.ReadPWM(ctx, valid)
	if err != nil {
		return nil, err
	}
	return model.PWMFromRaw(v), nil
}

type pwmWriteParams struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

func handleSetPWM(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pwmWriteParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	value, err := validatePWMValue(p.Value)
	if err != nil {
		return nil, err
	}
	return nil, s.gw.WritePWM(ctx, valid, value)
}

func handleEnableManualPWM(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	return nil, s.gw.SetPWMEnable(ctx, valid, 1)
}

func handleDisableManualPWM(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	return nil, s.gw.SetPWMEnable(ctx, valid, 0)
}

type overrideParams struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
	TTLMS int     `json:"ttl_ms"`
}

func handleSetPWMOverride(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p overrideParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	value, err := validatePWMValue(p.Value)
	if err != nil {
		return nil, err
	}
	ttl, err := validateOverrideTTL(p.TTLMS)
	if err != nil {
		return nil, err
	}
	s.loop.SetOverride(model.Override{PWMPath: valid, Value: value, ExpiresAt: time.Now().Add(ttl)})
	return nil, nil
}

func handleClearPWMOverride(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	valid, err := s.validatePath(p.Path)
	if err != nil {
		return nil, err
	}
	s.loop.ClearOverride(valid)
	return nil, nil
}

type gpuFanParams struct {
	Vendor  string  `json:"vendor"`
	Index   int     `json:"index"`
	Fan     int     `json:"fan"`
	Percent float64 `json:"percent"`
}

func handleSetGPUFan(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p gpuFanParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := validatePercent(p.Percent); err != nil {
		return nil, err
	}

	if p.Vendor == string(enumerate.GPUVendorNVIDIA) {
		return nil, enumerate.SetNVIDIAFan(ctx, p.Index, p.Fan, p.Percent)
	}

	pciID, ok := gpuVendorPCIID[p.Vendor]
	if !ok {
		return nil, fmt.Errorf("%w: unknown gpu vendor %q", ErrValidation, p.Vendor)
	}
	path, err := enumerate.ResolveDRMVendorPWMPath(enumerate.GPUVendor(p.Vendor), p.Index, pciID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	valid, err := s.validatePath(path)
	if err != nil {
		return nil, err
	}
	return nil, s.gw.WritePWM(ctx, valid, model.PWMFromPercent(p.Percent).Raw)
}

type gpuResetParams struct {
	Vendor string `json:"vendor"`
	Index  int    `json:"index"`
}

func handleResetGPUFanAuto(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p gpuResetParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}

	if p.Vendor == string(enumerate.GPUVendorNVIDIA) {
		return nil, enumerate.ResetNVIDIAFanAuto(ctx, p.Index)
	}

	pciID, ok := gpuVendorPCIID[p.Vendor]
	if !ok {
		return nil, fmt.Errorf("%w: unknown gpu vendor %q", ErrValidation, p.Vendor)
	}
	path, err := enumerate.ResolveDRMVendorPWMPath(enumerate.GPUVendor(p.Vendor), p.Index, pciID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	valid, err := s.validatePath(path)
	if err != nil {
		return nil, err
	}
	// Mode 2 (automatic) if the chip supports it; many AMD/Intel hwmon
	// drivers reject it, in which case the GPU's own firmware retains
	// control regardless and the caller can treat the error as advisory.
	return nil, s.gw.SetPWMEnable(ctx, valid+"_enable", 2)
}

func handleDetectFanMappings(ctx context.Context, s *Server, _ json.RawMessage) (any, error) {
	if s.prober == nil {
		return nil, fmt.Errorf("%w: no prober configured", ErrNotFound)
	}
	snap, err := s.gatherSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var pwms []prober.PWMChannel
	var fans []prober.FanChannel
	for _, cs := range snap.Chips {
		for _, cv := range cs.Channels {
			switch cv.Channel.Type {
			case model.ChannelTypePWMOut:
				if cv.Channel.Capabilities.Writable {
					pwms = append(pwms, prober.PWMChannel{ID: cv.Channel.ID, Path: cv.Channel.SysfsPath, Label: cv.Channel.Label})
				}
			case model.ChannelTypeFanTach:
				fans = append(fans, prober.FanChannel{ID: cv.Channel.ID, Path: cv.Channel.SysfsPath, Label: cv.Channel.Label})
			}
		}
	}

	return s.prober.Detect(ctx, pwms, fans)
}

func handleReloadConfig(_ context.Context, s *Server, _ json.RawMessage) (any, error) {
	s.loop.SignalReload()
	return nil, nil
}

// handleListPairings answers from s.pairings, a cache kept current by the
// control loop's binding-state events over the internal bus, rather than
// taking the fingerprint engine's lock on every request.
func handleListPairings(_ context.Context, s *Server, _ json.RawMessage) (any, error) {
	return s.pairings.list(), nil
}

type pairingCreateParams struct {
	Label    string `json:"label"`
	PWMPath  string `json:"pwm_path"`
	FanPath  string `json:"fan_path,omitempty"`
	TempPath string `json:"temp_path"`
	CurveID  string `json:"curve_id,omitempty"`
}

func handleCreatePairing(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pairingCreateParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}

	pwmPath, err := s.validatePath(p.PWMPath)
	if err != nil {
		return nil, err
	}
	tempPath, err := s.validatePath(p.TempPath)
	if err != nil {
		return nil, err
	}
	var fanPath string
	if p.FanPath != "" {
		fanPath, err = s.validatePath(p.FanPath)
		if err != nil {
			return nil, err
		}
	}

	binding := model.Binding{
		ID:            uuid.NewString(),
		Label:         p.Label,
		PWMChannelID:  uuid.NewString(),
		TempChannelID: uuid.NewString(),
		CurveID:       p.CurveID,
	}
	s.fpEngine.SetChannelHint(binding.PWMChannelID, pwmPath)
	s.fpEngine.SetChannelHint(binding.TempChannelID, tempPath)
	if fanPath != "" {
		binding.FanChannelID = uuid.NewString()
		s.fpEngine.SetChannelHint(binding.FanChannelID, fanPath)
	}

	s.fpEngine.SetManualBinding(binding)
	s.pairings.put(binding)

	if err := s.store.SaveFingerprints(*s.fpEngine.FingerprintStore()); err != nil {
		return nil, err
	}
	if err := s.store.SaveBindings(*s.fpEngine.BindingStore()); err != nil {
		return nil, err
	}
	return binding, nil
}

type pairingDeleteParams struct {
	ID string `json:"id"`
}

func handleDeletePairing(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p pairingDeleteParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if !s.fpEngine.DeleteBinding(p.ID) {
		return nil, fmt.Errorf("%w: pairing %q", ErrNotFound, p.ID)
	}
	s.pairings.remove(p.ID)
	return nil, s.store.SaveBindings(*s.fpEngine.BindingStore())
}

// ecChipInfo describes the one embedded controller this daemon can
// address directly. The list holds that controller when direct EC access is
// enabled and its debugfs interface is present, and is empty otherwise; it
// never holds more than one entry. The shape stays a list because callers
// already expect one from the hardware-listing commands.
type ecChipInfo struct {
	Path         string `json:"path"`
	Acknowledged bool   `json:"acknowledged"`
}

func handleListECChips(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	if s.ec == nil {
		return []ecChipInfo{}, nil
	}
	return []ecChipInfo{{Path: s.ec.Path(), Acknowledged: s.ec.Acknowledged()}}, nil
}

type ecOffsetParams struct {
	Offset int `json:"offset"`
}

func handleReadECRegister(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	if s.ec == nil {
		return nil, fmt.Errorf("%w: no embedded controller configured", ErrNotFound)
	}
	var p ecOffsetParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	v, err := s.ec.ReadRegister(ctx, p.Offset)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type ecWriteParams struct {
	Offset int `json:"offset"`
	Value  int `json:"value"`
}

func handleWriteECRegister(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	if s.ec == nil {
		return nil, fmt.Errorf("%w: no embedded controller configured", ErrNotFound)
	}
	var p ecWriteParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Value < 0 || p.Value > 255 {
		return nil, fmt.Errorf("%w: ec register value %d out of [0,255]", ErrValidation, p.Value)
	}
	return nil, s.ec.WriteRegister(ctx, p.Offset, byte(p.Value))
}

type ecRangeParams struct {
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func handleReadECRange(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	if s.ec == nil {
		return nil, fmt.Errorf("%w: no embedded controller configured", ErrNotFound)
	}
	var p ecRangeParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := validateECRangeCount(p.Count); err != nil {
		return nil, err
	}
	return s.ec.ReadRange(ctx, p.Offset, p.Count)
}

func handleGetGlobalMode(_ context.Context, s *Server, _ json.RawMessage) (any, error) {
	settings, err := s.store.LoadSettings()
	if err != nil {
		return nil, err
	}
	return settings.GlobalMode, nil
}

type globalModeParams struct {
	Mode string `json:"mode"`
}

func handleSetGlobalMode(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p globalModeParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Mode != "auto" && p.Mode != "manual" {
		return nil, fmt.Errorf("%w: global mode must be \"auto\" or \"manual\", got %q", ErrValidation, p.Mode)
	}

	for _, b := range s.fpEngine.Bindings() {
		path, ok := s.fpEngine.ChannelHint(b.PWMChannelID)
		if !ok || path == "" {
			continue
		}
		if p.Mode == "manual" {
			s.loop.SetOverride(model.Override{
				PWMPath:   path,
				Value:     model.PWMFromPercent(globalModeManualPercent).Raw,
				ExpiresAt: time.Now().Add(globalModeOverrideHorizon),
			})
		} else {
			s.loop.ClearOverride(path)
		}
	}

	settings, err := s.store.LoadSettings()
	if err != nil {
		return nil, err
	}
	settings.GlobalMode = p.Mode
	return nil, s.store.SaveSettings(settings)
}

func handleGetRateLimit(_ context.Context, s *Server, _ json.RawMessage) (any, error) {
	return int(s.rateLimit.Load()), nil
}

type rateLimitParams struct {
	PerWindow int `json:"per_window"`
}

func handleSetRateLimit(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	var p rateLimitParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := validateRateLimit(p.PerWindow); err != nil {
		return nil, err
	}
	s.rateLimit.Store(int64(p.PerWindow))

	settings, err := s.store.LoadSettings()
	if err != nil {
		return nil, err
	}
	settings.RateLimitPerWindow = p.PerWindow
	return nil, s.store.SaveSettings(settings)
}
