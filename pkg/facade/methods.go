// Package facade is the thin, typed adapter over pkg/session described in
// spec.md §1 and §6: it owns the concrete JSON-RPC method names and
// parameter/result shapes, translating them into Go method calls on top of
// Session's generic execute/executeSync primitives.
package facade

// Method names are the full set spec.md §6 lists for the device, settings,
// scan and firmware method groups. Only the names are fixed by spec.md;
// the firmware group's chunking/hashing orchestration is explicitly out of
// scope (spec.md §1 "external collaborator"), so Client exposes those
// methods as raw pass-throughs only.
const (
	MethodDeviceQueryInfo      = "device/queryInfo"
	MethodDeviceEnterLowPower  = "device/enterLowPower"
	MethodDeviceExitLowPower   = "device/exitLowPower"
	MethodDeviceReadTimestamp  = "device/readTimestamp"
	MethodDeviceResetTimestamp = "device/resetTimestamp"
	MethodDeviceReboot         = "device/reboot"
	MethodDeviceRebootToBoot   = "device/rebootToBootloader"

	MethodSettingsRead    = "settings/read"
	MethodSettingsWrite   = "settings/write"
	MethodSettingsPersist = "settings/persist"

	MethodScanStartMeasurement = "scan/startMeasurement"
	MethodScanStopMeasurement  = "scan/stopMeasurement"
	MethodScanStartStreaming   = "scan/startStreaming"
	MethodScanStopStreaming    = "scan/stopStreaming"

	MethodFirmwareBeginUpdate  = "firmware/beginUpdate"
	MethodFirmwareWriteData    = "firmware/writeData"
	MethodFirmwareVerifyHash   = "firmware/verifyHash"
	MethodFirmwareEndUpdate    = "firmware/endUpdate"
	MethodFirmwareCommitUpdate = "firmware/commitUpdate"
)
