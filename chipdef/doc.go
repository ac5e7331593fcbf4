// Package chipdef loads efuse chip descriptions.
//
// A chip description lists the controller registers, the efuse blocks and
// the named fields inside them. Descriptions are YAML documents; the ones
// for supported chips are embedded in the package.
//
// # Loading
//
//	chip, err := chipdef.Load("esp32s3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Parse and ParseReader accept user supplied documents in the same format.
//
// # Document Format
//
//	name: ESP32-S3
//	coding_scheme: rs
//	registers:
//	  pgm_data0: 0x60007000
//	  ...
//	blocks:
//	  - {name: BLOCK0, id: 0, rd_addr: 0x6000702C, wr_addr: 0x60007000, len: 6}
//	efuses:
//	  WR_DIS: {blk: 0, word: 0, pos: 0, len: 32, type: "uint:32"}
//	  RD_DIS: {blk: 0, word: 1, pos: 0, len: 7, type: "uint:7", wr_dis: 0}
//	calc:
//	  WAFER_VERSION_MINOR: {blk: 0, len: 4, type: "uint:4", class: wafer}
//
// Block ids must be consecutive from 0. A field's word and pos locate its
// least significant bit; both are omitted for calculated fields. rd_dis
// takes one bit index or several separated by spaces. Fields marked
// "show: n" are skipped.
//
// # Categories
//
// When a field gives no category or class, Categorize derives them from
// the field name. Fields in the "calibration" category are kept apart in
// Chip.Calibration.
package chipdef
