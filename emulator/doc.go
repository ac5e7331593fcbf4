// Package emulator provides an in-memory ESP efuse controller.
//
// A Device implements protocol.Transport on top of a register file and a
// per-block efuse array. It follows the controller closely enough to run
// every efuse operation against it:
//   - A program command ORs the write window into the addressed block,
//     checking the Reed-Solomon parity of blocks 1 and up
//   - Bits guarded by a burned WR_DIS bit are not programmed
//   - A read command reloads the read registers, with read-protected blocks
//     reading as zero
//   - Burning DIS_DOWNLOAD_MODE drops the connection at the next read
//
// State can be persisted to a YAML file so a virtual chip survives across
// runs:
//
//	chip, _ := chipdef.Load("esp32s3")
//	dev, err := emulator.New(chip, emulator.WithFile("efuses.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	efuses, err := efuse.Open(ctx, dev, chip)
package emulator
