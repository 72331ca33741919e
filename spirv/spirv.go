package spirv

import "strconv"

// ID is a SPIR-V result id.
type ID uint32

// String returns the id in assembly notation.
func (id ID) String() string {
	return "%" + strconv.FormatUint(uint64(id), 10)
}

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes known to the front end. Values follow the SPIR-V unified
// specification.
const (
	OpNop                  OpCode = 0
	OpUndef                OpCode = 1
	OpSource               OpCode = 3
	OpSourceExtension      OpCode = 4
	OpName                 OpCode = 5
	OpMemberName           OpCode = 6
	OpString               OpCode = 7
	OpLine                 OpCode = 8
	OpExtension            OpCode = 10
	OpExtInstImport        OpCode = 11
	OpExtInst              OpCode = 12
	OpMemoryModel          OpCode = 14
	OpEntryPoint           OpCode = 15
	OpExecutionMode        OpCode = 16
	OpCapability           OpCode = 17
	OpTypeVoid             OpCode = 19
	OpTypeBool             OpCode = 20
	OpTypeInt              OpCode = 21
	OpTypeFloat            OpCode = 22
	OpTypeVector           OpCode = 23
	OpTypeMatrix           OpCode = 24
	OpTypeArray            OpCode = 28
	OpTypeStruct           OpCode = 30
	OpTypePointer          OpCode = 32
	OpTypeFunction         OpCode = 33
	OpConstantTrue         OpCode = 41
	OpConstantFalse        OpCode = 42
	OpConstant             OpCode = 43
	OpConstantComposite    OpCode = 44
	OpConstantNull         OpCode = 46
	OpFunction             OpCode = 54
	OpFunctionParameter    OpCode = 55
	OpFunctionEnd          OpCode = 56
	OpFunctionCall         OpCode = 57
	OpVariable             OpCode = 59
	OpLoad                 OpCode = 61
	OpStore                OpCode = 62
	OpAccessChain          OpCode = 65
	OpDecorate             OpCode = 71
	OpMemberDecorate       OpCode = 72
	OpCompositeConstruct   OpCode = 80
	OpCompositeExtract     OpCode = 81
	OpCopyObject           OpCode = 83
	OpConvertFToU          OpCode = 109
	OpConvertFToS          OpCode = 110
	OpConvertSToF          OpCode = 111
	OpConvertUToF          OpCode = 112
	OpUConvert             OpCode = 113
	OpSConvert             OpCode = 114
	OpFConvert             OpCode = 115
	OpQuantizeToF16        OpCode = 116
	OpBitcast              OpCode = 124
	OpSNegate              OpCode = 126
	OpFNegate              OpCode = 127
	OpIAdd                 OpCode = 128
	OpFAdd                 OpCode = 129
	OpISub                 OpCode = 130
	OpFSub                 OpCode = 131
	OpIMul                 OpCode = 132
	OpFMul                 OpCode = 133
	OpUDiv                 OpCode = 134
	OpSDiv                 OpCode = 135
	OpFDiv                 OpCode = 136
	OpUMod                 OpCode = 137
	OpSRem                 OpCode = 138
	OpSMod                 OpCode = 139
	OpFRem                 OpCode = 140
	OpFMod                 OpCode = 141
	OpDot                  OpCode = 148
	OpLogicalEqual         OpCode = 164
	OpLogicalNotEqual      OpCode = 165
	OpLogicalOr            OpCode = 166
	OpLogicalAnd           OpCode = 167
	OpLogicalNot           OpCode = 168
	OpSelect               OpCode = 169
	OpIEqual               OpCode = 170
	OpINotEqual            OpCode = 171
	OpUGreaterThan         OpCode = 172
	OpSGreaterThan         OpCode = 173
	OpUGreaterThanEqual    OpCode = 174
	OpSGreaterThanEqual    OpCode = 175
	OpULessThan            OpCode = 176
	OpSLessThan            OpCode = 177
	OpULessThanEqual       OpCode = 178
	OpSLessThanEqual       OpCode = 179
	OpShiftRightLogical    OpCode = 194
	OpShiftRightArithmetic OpCode = 195
	OpShiftLeftLogical     OpCode = 196
	OpBitwiseOr            OpCode = 197
	OpBitwiseXor           OpCode = 198
	OpBitwiseAnd           OpCode = 199
	OpNot                  OpCode = 200
	OpBitFieldInsert       OpCode = 201
	OpBitFieldSExtract     OpCode = 202
	OpBitFieldUExtract     OpCode = 203
	OpBitReverse           OpCode = 204
	OpBitCount             OpCode = 205
	OpPhi                  OpCode = 245
	OpLoopMerge            OpCode = 246
	OpSelectionMerge       OpCode = 247
	OpLabel                OpCode = 248
	OpBranch               OpCode = 249
	OpBranchConditional    OpCode = 250
	OpSwitch               OpCode = 251
	OpKill                 OpCode = 252
	OpReturn               OpCode = 253
	OpReturnValue          OpCode = 254
	OpUnreachable          OpCode = 255
)

var opcodeNames = map[OpCode]string{
	OpNop: "OpNop", OpUndef: "OpUndef", OpSource: "OpSource",
	OpSourceExtension: "OpSourceExtension", OpName: "OpName",
	OpMemberName: "OpMemberName", OpString: "OpString", OpLine: "OpLine",
	OpExtension: "OpExtension", OpExtInstImport: "OpExtInstImport",
	OpExtInst: "OpExtInst", OpMemoryModel: "OpMemoryModel",
	OpEntryPoint: "OpEntryPoint", OpExecutionMode: "OpExecutionMode",
	OpCapability: "OpCapability", OpTypeVoid: "OpTypeVoid",
	OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector",
	OpTypeMatrix: "OpTypeMatrix", OpTypeArray: "OpTypeArray",
	OpTypeStruct: "OpTypeStruct", OpTypePointer: "OpTypePointer",
	OpTypeFunction: "OpTypeFunction", OpConstantTrue: "OpConstantTrue",
	OpConstantFalse: "OpConstantFalse", OpConstant: "OpConstant",
	OpConstantComposite: "OpConstantComposite", OpConstantNull: "OpConstantNull",
	OpFunction: "OpFunction", OpFunctionParameter: "OpFunctionParameter",
	OpFunctionEnd: "OpFunctionEnd", OpFunctionCall: "OpFunctionCall",
	OpVariable: "OpVariable", OpLoad: "OpLoad", OpStore: "OpStore",
	OpAccessChain: "OpAccessChain", OpDecorate: "OpDecorate",
	OpMemberDecorate: "OpMemberDecorate", OpCompositeConstruct: "OpCompositeConstruct",
	OpCompositeExtract: "OpCompositeExtract", OpCopyObject: "OpCopyObject",
	OpConvertFToU: "OpConvertFToU", OpConvertFToS: "OpConvertFToS",
	OpConvertSToF: "OpConvertSToF", OpConvertUToF: "OpConvertUToF",
	OpUConvert: "OpUConvert", OpSConvert: "OpSConvert", OpFConvert: "OpFConvert",
	OpQuantizeToF16: "OpQuantizeToF16", OpBitcast: "OpBitcast",
	OpSNegate: "OpSNegate", OpFNegate: "OpFNegate", OpIAdd: "OpIAdd",
	OpFAdd: "OpFAdd", OpISub: "OpISub", OpFSub: "OpFSub", OpIMul: "OpIMul",
	OpFMul: "OpFMul", OpUDiv: "OpUDiv", OpSDiv: "OpSDiv", OpFDiv: "OpFDiv",
	OpUMod: "OpUMod", OpSRem: "OpSRem", OpSMod: "OpSMod", OpFRem: "OpFRem",
	OpFMod: "OpFMod", OpDot: "OpDot", OpLogicalEqual: "OpLogicalEqual",
	OpLogicalNotEqual: "OpLogicalNotEqual", OpLogicalOr: "OpLogicalOr",
	OpLogicalAnd: "OpLogicalAnd", OpLogicalNot: "OpLogicalNot",
	OpSelect: "OpSelect", OpIEqual: "OpIEqual", OpINotEqual: "OpINotEqual",
	OpUGreaterThan: "OpUGreaterThan", OpSGreaterThan: "OpSGreaterThan",
	OpUGreaterThanEqual: "OpUGreaterThanEqual", OpSGreaterThanEqual: "OpSGreaterThanEqual",
	OpULessThan: "OpULessThan", OpSLessThan: "OpSLessThan",
	OpULessThanEqual: "OpULessThanEqual", OpSLessThanEqual: "OpSLessThanEqual",
	OpShiftRightLogical: "OpShiftRightLogical", OpShiftRightArithmetic: "OpShiftRightArithmetic",
	OpShiftLeftLogical: "OpShiftLeftLogical", OpBitwiseOr: "OpBitwiseOr",
	OpBitwiseXor: "OpBitwiseXor", OpBitwiseAnd: "OpBitwiseAnd", OpNot: "OpNot",
	OpBitFieldInsert: "OpBitFieldInsert", OpBitFieldSExtract: "OpBitFieldSExtract",
	OpBitFieldUExtract: "OpBitFieldUExtract", OpBitReverse: "OpBitReverse",
	OpBitCount: "OpBitCount", OpPhi: "OpPhi", OpLoopMerge: "OpLoopMerge",
	OpSelectionMerge: "OpSelectionMerge", OpLabel: "OpLabel", OpBranch: "OpBranch",
	OpBranchConditional: "OpBranchConditional", OpSwitch: "OpSwitch",
	OpKill: "OpKill", OpReturn: "OpReturn", OpReturnValue: "OpReturnValue",
	OpUnreachable: "OpUnreachable",
}

// opcodesByName is the inverse of opcodeNames, used by the assembler.
var opcodesByName = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// String returns the opcode mnemonic, e.g. "OpBitwiseAnd".
func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "Op(" + strconv.FormatUint(uint64(op), 10) + ")"
}

// LookupOpCode returns the opcode for a mnemonic such as "OpNot".
func LookupOpCode(name string) (OpCode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}
