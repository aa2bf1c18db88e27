package main

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation
#include <stdlib.h>
#include <string.h>
#import <ApplicationServices/ApplicationServices.h>

// get_active_context_text reads the last maxLen characters (at most) of
// the text value of the frontmost application's focused UI element via
// the Accessibility API; the cursor position is not consulted. Returns NULL (the caller
// treats that as "") if no permission, no focused app, or no text field.
char *get_active_context_text(int maxLen) {
    AXUIElementRef systemWide = AXUIElementCreateSystemWide();
    CFTypeRef focusedAppRef = NULL;
    AXError err = AXUIElementCopyAttributeValue(systemWide, kAXFocusedApplicationAttribute, &focusedAppRef);
    CFRelease(systemWide);
    if (err != kAXErrorSuccess || focusedAppRef == NULL) {
        return NULL;
    }

    CFTypeRef focusedElemRef = NULL;
    err = AXUIElementCopyAttributeValue((AXUIElementRef)focusedAppRef, kAXFocusedUIElementAttribute, &focusedElemRef);
    CFRelease(focusedAppRef);
    if (err != kAXErrorSuccess || focusedElemRef == NULL) {
        return NULL;
    }

    CFTypeRef valueRef = NULL;
    err = AXUIElementCopyAttributeValue((AXUIElementRef)focusedElemRef, kAXValueAttribute, &valueRef);
    CFRelease(focusedElemRef);
    if (err != kAXErrorSuccess || valueRef == NULL) {
        return NULL;
    }

    if (CFGetTypeID(valueRef) != CFStringGetTypeID()) {
        CFRelease(valueRef);
        return NULL;
    }

    CFStringRef cfStr = (CFStringRef)valueRef;
    CFIndex len = CFStringGetLength(cfStr);
    CFIndex start = len > maxLen ? len - maxLen : 0;
    CFStringRef tailStr = CFStringCreateWithSubstring(kCFAllocatorDefault, cfStr, CFRangeMake(start, len - start));
    CFRelease(valueRef);
    if (tailStr == NULL) {
        return NULL;
    }

    CFIndex bufSize = CFStringGetMaximumSizeForEncoding(CFStringGetLength(tailStr), kCFStringEncodingUTF8) + 1;
    char *buf = malloc(bufSize);
    if (!CFStringGetCString(tailStr, buf, bufSize, kCFStringEncodingUTF8)) {
        free(buf);
        CFRelease(tailStr);
        return NULL;
    }
    CFRelease(tailStr);
    return buf;
}
*/
import "C"
import "unsafe"

// captureContextText uses macOS Accessibility APIs via CGo to read the last
// 200 characters (at most) of the focused text element's value in the
// currently active application; the cursor position is not consulted. Returns an empty string if permission is
// missing or no text field is focused.
func captureContextText() string {
	cstr := C.get_active_context_text(200)
	if cstr != nil {
		defer C.free(unsafe.Pointer(cstr))
		return C.GoString(cstr)
	}
	return ""
}
