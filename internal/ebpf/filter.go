// In-kernel socket filter dropping datagrams that cannot be ua-profile traffic
package ebpf

import (
	"fmt"
	"os"
	"runtime"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"golang.org/x/sys/unix"
)

// Attached program. The socket holds its own reference once attached.
type Filter struct {
	program *ebpf.Program
}

// Accepts datagrams whose payload starts with "SUBS" or "SIP/" in any letter case,
// drops the rest (including anything shorter than four payload bytes).
// Case matches the parser, which upper-cases methods.
func Instructions() (insns asm.Instructions) {
	insns = asm.Instructions{
		// LD_ABS reads relative to the context held in R6
		asm.Mov.Reg(asm.R6, asm.R1),
		asm.LoadAbs(udpHeaderLength, asm.Word),
		asm.Or.Imm(asm.R0, caseFold),
		asm.JEq.Imm(asm.R0, prefixSubscribe, acceptLabel),
		asm.JEq.Imm(asm.R0, prefixStatus, acceptLabel),
		asm.Mov.Imm(asm.R0, 0),
		asm.Return(),
		asm.Mov.Imm(asm.R0, -1).WithSymbol(acceptLabel), // keep whole datagram
		asm.Return(),
	}
	return
}

// Program definition for the kernel
func ProgramSpec() (spec *ebpf.ProgramSpec) {
	spec = &ebpf.ProgramSpec{
		Name:         FilterName,
		Type:         ebpf.SocketFilter,
		License:      FilterLicense,
		Instructions: Instructions(),
	}
	return
}

// Loads the filter and attaches it to the socket.
// Requires CAP_BPF (or root); callers treat failure as non-fatal.
func Attach(fd int) (filter *Filter, err error) {
	if runtime.GOOS != "linux" {
		err = fmt.Errorf("socket filters require linux")
		return
	}
	if fd <= 2 {
		err = fmt.Errorf("unsupported fd for socket")
		return
	}

	if os.Geteuid() == 0 {
		err = unix.Setrlimit(unix.RLIMIT_MEMLOCK, &unix.Rlimit{
			Cur: unix.RLIM_INFINITY,
			Max: unix.RLIM_INFINITY,
		})
		if err != nil {
			err = fmt.Errorf("set resource limit: %w", err)
			return
		}
	}

	program, err := ebpf.NewProgram(ProgramSpec())
	if err != nil {
		err = fmt.Errorf("load socket filter: %w", err)
		return
	}

	err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ATTACH_BPF, program.FD())
	if err != nil {
		_ = program.Close()
		err = fmt.Errorf("attach socket filter: %w", err)
		return
	}

	filter = &Filter{program: program}
	return
}

// Releases the user space program handle
func (filter *Filter) Close() (err error) {
	if filter == nil || filter.program == nil {
		return
	}
	err = filter.program.Close()
	filter.program = nil
	return
}
