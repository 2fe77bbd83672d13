// Package modbus implements the Modbus RTU read-holding-registers
// framing used to talk to a device block: request construction,
// CRC16-Modbus validation, response parsing, and normalization to a
// plain big-endian payload (spec §4.5, §6.2). The layer never touches
// a transport — it is pure byte-in/byte-out.
package modbus

import (
	"fmt"

	"github.com/stationkit/powersdk/errs"
)

const (
	funcReadHoldingRegisters byte = 0x03
	exceptionBit             byte = 0x80
)

// Response is the decoded, framing-stripped result of ParseResponse.
type Response struct {
	DeviceAddress byte
	FunctionCode  byte
	Data          []byte
}

// BuildRequest forms a function-code-0x03 read-holding-registers
// frame: [addr][0x03][block_addr_hi][block_addr_lo][count_hi][count_lo][crc_lo][crc_hi].
func BuildRequest(deviceAddress byte, blockAddress, registerCount uint16) []byte {
	frame := make([]byte, 6, 8)
	frame[0] = deviceAddress
	frame[1] = funcReadHoldingRegisters
	frame[2] = byte(blockAddress >> 8)
	frame[3] = byte(blockAddress)
	frame[4] = byte(registerCount >> 8)
	frame[5] = byte(registerCount)
	crc := CRC16(frame)
	frame = append(frame, byte(crc), byte(crc>>8)) // little-endian
	return frame
}

// CRC16 computes the CRC16-Modbus checksum (poly 0xA001, init 0xFFFF,
// byte-wise LSB-first) of data.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// ValidateCRC reports whether frame's trailing two bytes (little-endian)
// equal the CRC16-Modbus of the preceding bytes. Frames shorter than 2
// bytes are never valid.
func ValidateCRC(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	body := frame[:len(frame)-2]
	want := CRC16(body)
	got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	return want == got
}

// ParseResponse validates frame's CRC and decodes it, expecting
// [addr][func][count][data...][crc_lo][crc_hi]. A function code with
// bit 7 set signals a Modbus exception: byte[2] is the exception code.
func ParseResponse(frame []byte) (*Response, error) {
	if !ValidateCRC(frame) {
		return nil, errs.NewProtocolError("CRC validation failed")
	}
	if len(frame) < 5 {
		return nil, errs.NewProtocolError(fmt.Sprintf("frame too short: %d bytes", len(frame)))
	}

	deviceAddress := frame[0]
	function := frame[1]

	if function&exceptionBit != 0 {
		code := frame[2]
		return nil, errs.NewModbusExceptionError(code)
	}

	byteCount := int(frame[2])
	dataStart := 3
	dataEnd := dataStart + byteCount
	if dataEnd+2 > len(frame) {
		return nil, errs.NewProtocolError(fmt.Sprintf("declared byte count %d exceeds frame length %d", byteCount, len(frame)))
	}

	return &Response{
		DeviceAddress: deviceAddress,
		FunctionCode:  function,
		Data:          frame[dataStart:dataEnd],
	}, nil
}

// Normalize returns resp's data slice unchanged; Modbus responses are
// already big-endian, so normalization is the identity transform over
// the framing-stripped payload.
func Normalize(resp *Response) []byte {
	return resp.Data
}
