package compiler

import "unsafe"

// These offsets are baked into the machine code compiler.go emits.
// unsafe.Offsetof is evaluated at compile time, so this file is the single
// source of truth -- changing callEngine/moduleContext/stackContext/
// exitContext's field order is picked up by the next build of the compiler
// without touching nativecall_amd64.s, which reads none of these offsets.
const (
	callEngineModuleContextFnOffset                       = unsafe.Offsetof(callEngine{}.fn)
	callEngineModuleContextModuleInstanceOffset            = unsafe.Offsetof(callEngine{}.moduleInstance)
	callEngineModuleContextGlobalElement0AddressOffset     = unsafe.Offsetof(callEngine{}.globalElement0Address)
	callEngineModuleContextMemoryElement0AddressOffset     = unsafe.Offsetof(callEngine{}.memoryElement0Address)
	callEngineModuleContextMemorySliceLenOffset            = unsafe.Offsetof(callEngine{}.memorySliceLen)
	callEngineModuleContextTablesElement0AddressOffset     = unsafe.Offsetof(callEngine{}.tablesElement0Address)
	callEngineModuleContextFunctionsElement0AddressOffset  = unsafe.Offsetof(callEngine{}.functionsElement0Address)

	callEngineStackContextStackPointerOffset            = unsafe.Offsetof(callEngine{}.stackPointer)
	callEngineStackContextStackBasePointerInBytesOffset = unsafe.Offsetof(callEngine{}.stackBasePointerInBytes)
	callEngineStackContextStackElement0AddressOffset    = unsafe.Offsetof(callEngine{}.stackElement0Address)
	callEngineStackContextStackLenInBytesOffset         = unsafe.Offsetof(callEngine{}.stackLenInBytes)

	callEngineExitContextStatusCodeOffset               = unsafe.Offsetof(callEngine{}.statusCode)
	callEngineExitContextBuiltinFunctionCallIndexOffset = unsafe.Offsetof(callEngine{}.builtinFunctionCallIndex)
	callEngineExitContextReturnAddressOffset            = unsafe.Offsetof(callEngine{}.returnAddress)
	callEngineExitContextTrapSourceOffsetOffset         = unsafe.Offsetof(callEngine{}.trapSourceOffset)
	callEngineExitContextCallFunctionIndexOffset        = unsafe.Offsetof(callEngine{}.callFunctionIndex)
	callEngineExitContextCallIndirectTypeIndexOffset    = unsafe.Offsetof(callEngine{}.callIndirectTypeIndex)
	callEngineExitContextCallIndirectTableIndexOffset   = unsafe.Offsetof(callEngine{}.callIndirectTableIndex)
	callEngineExitContextCallIndirectTableSlotOffset    = unsafe.Offsetof(callEngine{}.callIndirectTableSlot)
	callEngineExitContextMemoryGrowDeltaPagesOffset     = unsafe.Offsetof(callEngine{}.memoryGrowDeltaPages)

	functionCodeInitialAddressOffset = unsafe.Offsetof(function{}.codeInitialAddress)
	functionModuleInstanceOffset     = unsafe.Offsetof(function{}.moduleInstance)
)
