package facade

import (
	"context"
	"encoding/json"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// Firmware update orchestration (chunking, hashing, retry policy) is out
// of scope: spec.md §1 names it an external collaborator. These methods
// are raw pass-throughs that forward caller-supplied params and return the
// raw result, so a separate updater component can drive the method names
// spec.md §6 fixes without this façade guessing at their payload shape.

// FirmwareBeginUpdate implements firmware/beginUpdate.
func (c *Client) FirmwareBeginUpdate(ctx context.Context, params interface{}) (json.RawMessage, ldcperr.Code) {
	return c.call(ctx, MethodFirmwareBeginUpdate, params)
}

// FirmwareWriteData implements firmware/writeData.
func (c *Client) FirmwareWriteData(ctx context.Context, params interface{}) (json.RawMessage, ldcperr.Code) {
	return c.call(ctx, MethodFirmwareWriteData, params)
}

// FirmwareVerifyHash implements firmware/verifyHash.
func (c *Client) FirmwareVerifyHash(ctx context.Context, params interface{}) (json.RawMessage, ldcperr.Code) {
	return c.call(ctx, MethodFirmwareVerifyHash, params)
}

// FirmwareEndUpdate implements firmware/endUpdate.
func (c *Client) FirmwareEndUpdate(ctx context.Context, params interface{}) (json.RawMessage, ldcperr.Code) {
	return c.call(ctx, MethodFirmwareEndUpdate, params)
}

// FirmwareCommitUpdate implements firmware/commitUpdate.
func (c *Client) FirmwareCommitUpdate(ctx context.Context, params interface{}) (json.RawMessage, ldcperr.Code) {
	return c.call(ctx, MethodFirmwareCommitUpdate, params)
}
