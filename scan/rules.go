package scan

// Scanner tuning constants.
const (
	// headerLen is how many leading bytes the signature check reads.
	headerLen = 16

	// EntropySampleSize bounds the leading sample used for the
	// entropy check.
	EntropySampleSize = 64 * 1024

	// EntropyMinSize exempts tiny files from the entropy check;
	// entropy over a small sample is not statistically meaningful.
	EntropyMinSize = 512

	// EntropyThreshold is the rejection bound in bits per byte.
	// Packed or encrypted payloads approach the 8.0 maximum.
	EntropyThreshold = 7.5

	// MaxPatternScanSize exempts large files from the pattern check
	// to bound scan latency.
	MaxPatternScanSize = 10 * 1024 * 1024
)

// dangerousExtensions is the deny-list of executable, script, and
// macro-bearing filename extensions. Matched case-insensitively.
var dangerousExtensions = map[string]struct{}{
	// Windows executables and scripts
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".scr": {}, ".pif": {},
	".msi": {}, ".msp": {}, ".mst": {}, ".vbs": {}, ".vbe": {}, ".js": {},
	".jse": {}, ".wsf": {}, ".wsh": {}, ".ps1": {}, ".ps1xml": {}, ".ps2": {},
	".ps2xml": {}, ".psc1": {}, ".psc2": {}, ".msh": {}, ".msh1": {}, ".msh2": {},
	".mshxml": {}, ".msh1xml": {}, ".msh2xml": {}, ".reg": {}, ".inf": {},
	// Linux/Mac executables and scripts
	".sh": {}, ".bash": {}, ".zsh": {}, ".ksh": {}, ".csh": {}, ".fish": {},
	".elf": {}, ".out": {}, ".run": {},
	// Compiled code / libraries
	".dll": {}, ".so": {}, ".dylib": {}, ".sys": {}, ".drv": {},
	// Java
	".jar": {}, ".jnlp": {}, ".class": {},
	// Office macros
	".xlsm": {}, ".xlsb": {}, ".xltm": {}, ".docm": {}, ".dotm": {},
	".pptm": {}, ".potm": {}, ".ppam": {}, ".ppsm": {}, ".sldm": {},
	// Other
	".hta": {}, ".cpl": {}, ".gadget": {}, ".application": {},
	".appref-ms": {}, ".lnk": {}, ".url": {},
}

// Signature is one known dangerous byte pattern at a fixed offset
// within the file header.
type Signature struct {
	Offset      int
	Pattern     []byte
	Description string
}

// dangerousSignatures lists known executable, archive, and
// document-container signatures. The first match wins.
var dangerousSignatures = []Signature{
	{0, []byte("MZ"), "Windows PE executable (MZ header)"},
	{0, []byte{0x7f, 'E', 'L', 'F'}, "Linux ELF executable"},
	{0, []byte{0xca, 0xfe, 0xba, 0xbe}, "Java class file / Mach-O fat binary"},
	{0, []byte{0xfe, 0xed, 0xfa, 0xce}, "Mach-O 32-bit executable"},
	{0, []byte{0xfe, 0xed, 0xfa, 0xcf}, "Mach-O 64-bit executable"},
	{0, []byte{0xce, 0xfa, 0xed, 0xfe}, "Mach-O 32-bit (reversed)"},
	{0, []byte{0xcf, 0xfa, 0xed, 0xfe}, "Mach-O 64-bit (reversed)"},
	{0, []byte("#!/"), "Unix shebang script"},
	{0, []byte("#!"), "Unix shebang script"},
	{0, []byte("PK\x03\x04"), "ZIP/JAR archive (may contain executables)"},
	{0, []byte{0xd0, 0xcf, 0x11, 0xe0}, "Microsoft Office OLE2 compound document"},
}

// suspiciousPatterns lists known malicious command and script
// fragments. Matched case-insensitively anywhere in the content.
var suspiciousPatterns = [][]byte{
	// PowerShell download cradles
	[]byte("Invoke-WebRequest"),
	[]byte("IEX("),
	[]byte("Invoke-Expression"),
	[]byte("DownloadString"),
	[]byte("DownloadFile"),
	[]byte("Net.WebClient"),
	[]byte("Start-Process"),
	[]byte("powershell -enc"),
	[]byte("powershell -e "),
	// Python/shell execution
	[]byte("__import__('os')"),
	[]byte("subprocess.call"),
	[]byte("subprocess.Popen"),
	[]byte("os.system("),
	[]byte("eval(base64"),
	[]byte("exec(base64"),
	[]byte("exec(compile"),
	// Shell commands
	[]byte("curl | bash"),
	[]byte("wget | bash"),
	[]byte("curl|bash"),
	[]byte("wget|bash"),
	[]byte("bash -i >& /dev/tcp"),
	[]byte("/bin/sh -i"),
	[]byte("nc -e /bin/sh"),
	// Obfuscation
	[]byte("base64_decode"),
	[]byte("fromCharCode"),
	[]byte("String.fromCharCode"),
	[]byte("unescape("),
	[]byte("ActiveXObject"),
	[]byte("WScript.Shell"),
	[]byte("Shell.Application"),
}
